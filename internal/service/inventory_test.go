package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweet_shop/internal/apperr"
	"sweet_shop/internal/model"
	"sweet_shop/internal/queue"
)

func TestPurchase_DecrementsStockAndFreezesTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "buyer@example.com")
	s := env.sweet(t, "Choc", "5.99", 100)

	p, err := env.inventory.Purchase(ctx, u.ID, s.ID, 10)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, 10, p.Quantity)
	assert.True(t, p.TotalPrice.Equal(dec("59.90")), p.TotalPrice.String())

	got, err := env.catalog.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, got.Quantity)
	assert.True(t, got.IsAvailable)

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, queue.EventPurchase, events[0].Type)
	assert.Equal(t, s.ID, events[0].SweetID)
	assert.Equal(t, u.ID, events[0].UserID)
	assert.Equal(t, 90, events[0].Remaining)
	assert.NoError(t, events[0].Validate())
}

func TestPurchase_LastUnitMarksUnavailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "buyer@example.com")
	s := env.sweet(t, "Single", "1.00", 1)

	_, err := env.inventory.Purchase(ctx, u.ID, s.ID, 1)
	require.NoError(t, err)

	got, err := env.catalog.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
	assert.False(t, got.IsAvailable)
}

func TestPurchase_OverwritesAvailabilityOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "buyer@example.com")
	s := env.sweet(t, "Override", "1.00", 5)

	_, err := env.catalog.Update(ctx, s.ID, SweetUpdate{IsAvailable: ptr(false)})
	require.NoError(t, err)

	_, err = env.inventory.Purchase(ctx, u.ID, s.ID, 1)
	require.NoError(t, err)

	got, err := env.catalog.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
	assert.True(t, got.IsAvailable)
}

func TestPurchase_InsufficientLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "buyer@example.com")
	s := env.sweet(t, "Scarce", "2.00", 3)

	_, err := env.inventory.Purchase(ctx, u.ID, s.ID, 4)
	requireKind(t, err, apperr.KindInsufficientInventory)
	assert.Equal(t, "Insufficient inventory. Available: 3, Requested: 4", apperr.PublicMessage(err))

	got, err := env.catalog.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	var count int64
	require.NoError(t, env.db.Model(&model.Purchase{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.events.Events())
}

func TestPurchase_ValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "buyer@example.com")
	s := env.sweet(t, "Ordered", "1.00", 5)

	tests := []struct {
		name     string
		userID   uint
		sweetID  uint
		quantity int
		kind     apperr.Kind
	}{
		{"unknown user first", 999, 999, 0, apperr.KindNotFound},
		{"unknown sweet before quantity", u.ID, 999, 0, apperr.KindNotFound},
		{"zero quantity", u.ID, s.ID, 0, apperr.KindValidation},
		{"negative quantity", u.ID, s.ID, -3, apperr.KindValidation},
		{"over the cap", u.ID, s.ID, MaxPurchaseQuantity + 1, apperr.KindValidation},
		{"cap checked before stock", u.ID, s.ID, 5000, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.inventory.Purchase(ctx, tt.userID, tt.sweetID, tt.quantity)
			requireKind(t, err, tt.kind)
		})
	}

	_, err := env.inventory.Purchase(ctx, 999, s.ID, 1)
	assert.Equal(t, "User with ID 999 not found", err.Error())
}

func TestPurchase_ConcurrentBuyersNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "crowd@example.com")
	s := env.sweet(t, "Limited", "1.00", 5)

	const buyers = 12
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, shortage int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.inventory.Purchase(ctx, u.ID, s.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.KindOf(err) == apperr.KindInsufficientInventory:
				shortage++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, buyers-5, shortage)

	got, err := env.catalog.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
	assert.False(t, got.IsAvailable)
}

func TestPurchase_PublishFailureDoesNotUndoCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.events.err = errors.New("broker unavailable")
	u := env.register(t, "buyer@example.com")
	s := env.sweet(t, "Resilient", "1.00", 2)

	_, err := env.inventory.Purchase(ctx, u.ID, s.ID, 2)
	require.NoError(t, err)

	got, err := env.catalog.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
	assert.Len(t, env.events.Events(), 1)
}

func TestPurchaseHistory_TotalsFrozenAfterPriceChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "history@example.com")
	other := env.register(t, "other@example.com")
	s := env.sweet(t, "Caramel", "5.99", 50)

	_, err := env.inventory.Purchase(ctx, u.ID, s.ID, 2)
	require.NoError(t, err)
	_, err = env.catalog.Update(ctx, s.ID, SweetUpdate{Price: ptr(dec("7.00"))})
	require.NoError(t, err)
	_, err = env.inventory.Purchase(ctx, u.ID, s.ID, 1)
	require.NoError(t, err)
	_, err = env.inventory.Purchase(ctx, other.ID, s.ID, 1)
	require.NoError(t, err)

	total, page, err := env.inventory.PurchaseHistory(ctx, u.ID, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 2)
	// 最新的在前。
	assert.True(t, page[0].TotalPrice.Equal(dec("7.00")), page[0].TotalPrice.String())
	assert.True(t, page[1].TotalPrice.Equal(dec("11.98")), page[1].TotalPrice.String())

	total, page, err = env.inventory.PurchaseHistory(ctx, u.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, 2, page[0].Quantity)

	_, _, err = env.inventory.PurchaseHistory(ctx, u.ID, 0, 0)
	requireKind(t, err, apperr.KindValidation)
}

func TestRestock_AlwaysMarksAvailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.sweet(t, "Sold Out", "1.00", 0)
	assert.False(t, s.IsAvailable)

	got, err := env.inventory.Restock(ctx, s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
	assert.True(t, got.IsAvailable)

	_, err = env.catalog.Update(ctx, s.ID, SweetUpdate{IsAvailable: ptr(false)})
	require.NoError(t, err)

	got, err = env.inventory.Restock(ctx, s.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, got.Quantity)
	assert.True(t, got.IsAvailable)

	events := env.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, queue.EventRestock, events[1].Type)
	assert.Equal(t, 11, events[1].Remaining)
	assert.NoError(t, events[1].Validate())
}

func TestRestock_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.sweet(t, "Bounded", "1.00", 0)

	_, err := env.inventory.Restock(ctx, 999, 0)
	requireKind(t, err, apperr.KindNotFound)

	for _, q := range []int{0, -1, MaxRestockQuantity + 1} {
		_, err := env.inventory.Restock(ctx, s.ID, q)
		requireKind(t, err, apperr.KindValidation)
	}

	got, err := env.inventory.Restock(ctx, s.ID, MaxRestockQuantity)
	require.NoError(t, err)
	assert.Equal(t, MaxRestockQuantity, got.Quantity)
}
