package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType 区分库存变动来源。
type EventType string

const (
	EventPurchase EventType = "purchase"
	EventRestock  EventType = "restock"
)

// InventoryEvent 是写入 Kafka 的库存变动事件，在事务提交后投递。
type InventoryEvent struct {
	EventID    string          `json:"event_id"`
	Type       EventType       `json:"type"`
	SweetID    uint            `json:"sweet_id"`
	UserID     uint            `json:"user_id,omitempty"` // restock 为 0
	Quantity   int             `json:"quantity"`
	Remaining  int             `json:"remaining"`
	TotalPrice decimal.Decimal `json:"total_price"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewInventoryEvent 生成带唯一 event_id 的事件。
func NewInventoryEvent(typ EventType, sweetID, userID uint, quantity, remaining int, total decimal.Decimal) InventoryEvent {
	return InventoryEvent{
		EventID:    uuid.New().String(),
		Type:       typ,
		SweetID:    sweetID,
		UserID:     userID,
		Quantity:   quantity,
		Remaining:  remaining,
		TotalPrice: total,
		OccurredAt: time.Now().UTC(),
	}
}

// Validate 做最小字段校验，防止投递脏消息。
func (e InventoryEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.Type != EventPurchase && e.Type != EventRestock {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.SweetID == 0 {
		return fmt.Errorf("sweet_id is required")
	}
	if e.Type == EventPurchase && e.UserID == 0 {
		return fmt.Errorf("user_id is required for purchase")
	}
	if e.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	if e.Remaining < 0 {
		return fmt.Errorf("remaining must be >= 0")
	}
	return nil
}
