package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweet_shop/internal/apperr"
)

func TestGate_AuthenticateThenPermit(t *testing.T) {
	tokens, err := NewTokenService(testSecret, "HS256", time.Hour)
	require.NoError(t, err)
	gate := NewGate(tokens)

	check := func(token string, op Operation) (Identity, error) {
		id, err := gate.Authenticate(token)
		if err != nil {
			return Identity{}, err
		}
		return id, gate.Permit(id, op)
	}

	userToken, err := tokens.Issue(2, "user@example.com", false, 0)
	require.NoError(t, err)
	adminToken, err := tokens.Issue(1, "admin@example.com", true, 0)
	require.NoError(t, err)

	adminOps := []Operation{OpCreateSweet, OpUpdateSweet, OpDeleteSweet, OpRestockSweet, OpManageUsers}
	userOps := []Operation{OpReadCatalog, OpPurchase, OpReadHistory}

	for _, op := range adminOps {
		t.Run("user denied "+op.String(), func(t *testing.T) {
			_, err := check(userToken, op)
			assert.ErrorIs(t, err, apperr.ErrAuthorization)
			assert.NotErrorIs(t, err, apperr.ErrAuthentication)
		})
		t.Run("admin allowed "+op.String(), func(t *testing.T) {
			id, err := check(adminToken, op)
			require.NoError(t, err)
			assert.Equal(t, uint(1), id.UserID)
		})
	}

	for _, op := range userOps {
		t.Run("user allowed "+op.String(), func(t *testing.T) {
			id, err := check(userToken, op)
			require.NoError(t, err)
			assert.Equal(t, uint(2), id.UserID)
		})
	}

	for _, op := range append(adminOps, userOps...) {
		t.Run("anonymous "+op.String(), func(t *testing.T) {
			_, err := check("", op)
			assert.ErrorIs(t, err, apperr.ErrAuthentication)
			assert.NotErrorIs(t, err, apperr.ErrAuthorization)

			_, err = check("garbage", op)
			assert.ErrorIs(t, err, apperr.ErrAuthentication)
		})
	}
}

func TestIsAdminEmail(t *testing.T) {
	assert.True(t, IsAdminEmail("admin@sweetshop.com", "admin@sweetshop.com"))
	assert.False(t, IsAdminEmail("Admin@sweetshop.com", "admin@sweetshop.com"))
	assert.False(t, IsAdminEmail("user@sweetshop.com", "admin@sweetshop.com"))
	assert.False(t, IsAdminEmail("", ""))
	assert.False(t, IsAdminEmail("admin@sweetshop.com", ""))
}
