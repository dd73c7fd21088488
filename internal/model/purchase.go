package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase 不可变的购买流水。TotalPrice 按下单时单价冻结。
type Purchase struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID     uint            `gorm:"not null;index" json:"user_id"`
	SweetID    uint            `gorm:"not null;index" json:"sweet_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
}

func (Purchase) TableName() string { return "purchases" }
