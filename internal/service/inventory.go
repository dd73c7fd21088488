package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sweet_shop/internal/apperr"
	"sweet_shop/internal/metrics"
	"sweet_shop/internal/model"
	"sweet_shop/internal/queue"
)

const (
	MaxPurchaseQuantity = 1000
	MaxRestockQuantity  = 10000
)

// Inventory moves stock: purchases take it out, restocks put it back.
// Each operation is one transaction; events are published after commit.
type Inventory struct {
	db        *gorm.DB
	publisher queue.Publisher
	log       logrus.FieldLogger
}

func NewInventory(db *gorm.DB, publisher queue.Publisher, log logrus.FieldLogger) *Inventory {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &Inventory{db: db, publisher: publisher, log: log}
}

// Purchase buys quantity units of a sweet for a user. The stock decrement
// and the ledger row commit together or not at all. The total price is
// frozen at the unit price read inside the transaction.
func (inv *Inventory) Purchase(ctx context.Context, userID, sweetID uint, quantity int) (*model.Purchase, error) {
	var (
		p         model.Purchase
		remaining int
	)
	err := inv.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Select("id").First(&u, userID).Error; err != nil {
			return storeErr(err, nil, apperr.NotFound("User with ID %d not found", userID))
		}
		var s model.Sweet
		if err := tx.First(&s, sweetID).Error; err != nil {
			return storeErr(err, nil, sweetNotFound(sweetID))
		}

		if quantity <= 0 {
			return apperr.Validation("Purchase quantity must be greater than 0")
		}
		if quantity > MaxPurchaseQuantity {
			return apperr.Validation("Purchase quantity cannot exceed %d", MaxPurchaseQuantity)
		}
		if s.Quantity < quantity {
			return apperr.InsufficientInventory(s.Quantity, quantity)
		}

		// 条件扣减：库存在读取后被并发购买消耗时影响行数为 0，不会扣成负数。
		res := tx.Model(&model.Sweet{}).
			Where("id = ? AND quantity >= ?", sweetID, quantity).
			Updates(map[string]any{
				"quantity":     gorm.Expr("quantity - ?", quantity),
				"is_available": gorm.Expr("quantity - ? > 0", quantity),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.First(&s, sweetID).Error; err != nil {
				return err
			}
			return apperr.InsufficientInventory(s.Quantity, quantity)
		}

		p = model.Purchase{
			UserID:     userID,
			SweetID:    sweetID,
			Quantity:   quantity,
			TotalPrice: s.Price.Mul(decimal.NewFromInt(int64(quantity))),
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		remaining = s.Quantity - quantity
		return nil
	})
	if err != nil {
		err = passThrough(err)
		switch apperr.KindOf(err) {
		case apperr.KindInsufficientInventory:
			metrics.RecordPurchase(metrics.PurchaseInsufficient, 0)
		case apperr.KindInternal:
			metrics.RecordPurchase(metrics.PurchaseError, 0)
			inv.log.WithError(err).WithField("sweet_id", sweetID).Error("purchase failed")
		default:
			metrics.RecordPurchase(metrics.PurchaseRejected, 0)
		}
		return nil, err
	}

	metrics.RecordPurchase(metrics.PurchaseOK, quantity)
	inv.log.WithFields(logrus.Fields{
		"purchase_id": p.ID,
		"user_id":     userID,
		"sweet_id":    sweetID,
		"quantity":    quantity,
		"remaining":   remaining,
	}).Info("purchase committed")

	inv.publish(ctx, queue.NewInventoryEvent(queue.EventPurchase, sweetID, userID, quantity, remaining, p.TotalPrice))
	return &p, nil
}

// Restock adds quantity units and marks the sweet available regardless of
// any earlier override.
func (inv *Inventory) Restock(ctx context.Context, sweetID uint, quantity int) (*model.Sweet, error) {
	var s model.Sweet
	err := inv.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&s, sweetID).Error; err != nil {
			return storeErr(err, nil, sweetNotFound(sweetID))
		}
		if quantity <= 0 {
			return apperr.Validation("Restock quantity must be greater than 0")
		}
		if quantity > MaxRestockQuantity {
			return apperr.Validation("Restock quantity cannot exceed %d", MaxRestockQuantity)
		}

		err := tx.Model(&model.Sweet{}).
			Where("id = ?", sweetID).
			Updates(map[string]any{
				"quantity":     gorm.Expr("quantity + ?", quantity),
				"is_available": true,
			}).Error
		if err != nil {
			return err
		}
		return tx.First(&s, sweetID).Error
	})
	if err != nil {
		err = passThrough(err)
		if apperr.KindOf(err) == apperr.KindInternal {
			inv.log.WithError(err).WithField("sweet_id", sweetID).Error("restock failed")
		}
		return nil, err
	}

	metrics.RecordRestock(quantity)
	inv.log.WithFields(logrus.Fields{
		"sweet_id":  sweetID,
		"quantity":  quantity,
		"remaining": s.Quantity,
	}).Info("restock committed")

	inv.publish(ctx, queue.NewInventoryEvent(queue.EventRestock, sweetID, 0, quantity, s.Quantity, decimal.Zero))
	return &s, nil
}

// PurchaseHistory returns the total number of purchases made by the user
// and one page of them, newest first.
func (inv *Inventory) PurchaseHistory(ctx context.Context, userID uint, skip, limit int) (int64, []model.Purchase, error) {
	if err := checkPage(skip, limit); err != nil {
		return 0, nil, err
	}
	var total int64
	if err := inv.db.WithContext(ctx).Model(&model.Purchase{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal(err)
	}
	purchases := make([]model.Purchase, 0, limit)
	err := inv.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Offset(skip).Limit(limit).
		Find(&purchases).Error
	if err != nil {
		return 0, nil, apperr.Internal(err)
	}
	return total, purchases, nil
}

// publish 在事务提交后投递事件；失败只记录日志，不回滚已提交的库存变动。
func (inv *Inventory) publish(ctx context.Context, e queue.InventoryEvent) {
	if err := inv.publisher.Publish(ctx, e); err != nil {
		inv.log.WithError(err).WithFields(logrus.Fields{
			"event_id": e.EventID,
			"type":     e.Type,
			"sweet_id": e.SweetID,
		}).Warn("inventory event publish failed")
	}
}
