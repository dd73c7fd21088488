package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sweet 商品：名称全局唯一，价格 > 0，库存 >= 0。
type Sweet struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string          `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description *string         `gorm:"size:500" json:"description"`
	Category    string          `gorm:"size:50;index;not null" json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:0" json:"quantity"`
	// IsAvailable 随购买/补货自动重算为 Quantity > 0，更新接口可显式覆盖。
	IsAvailable bool `gorm:"not null" json:"is_available"`

	// 删除商品时级联删除其购买记录。
	Purchases []Purchase `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Sweet) TableName() string { return "sweets" }

// InStock 是可售状态的自动取值。
func (s *Sweet) InStock() bool { return s.Quantity > 0 }

func init() {
	// 价格以 JSON 数字输出，与前端约定一致。
	decimal.MarshalJSONWithoutQuotes = true
}
