package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表。StockQuantity 是唯一被并发争用的可变库存计数，
// 只允许库存台账（service.StockLedger）在行锁事务内修改。
type Product struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                                // 主键
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`                                    // 唯一标识
	Title           string         `gorm:"not null" json:"title"`                                               // 商品名称
	PriceAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"`           // 价格金额
	PriceCurrency   string         `gorm:"type:varchar(10);not null;default:'USD'" json:"price_currency"`       // 价格币种
	StockQuantity   int            `gorm:"not null;default:0" json:"stock_quantity"`                            // 可售库存（恒 >= 0）
	FulfillmentMode string         `gorm:"type:varchar(20);not null;default:'both';index" json:"fulfillment_mode"` // 配送模式（local_only/ship_only/both）
	IsActive        bool           `gorm:"default:true;index" json:"is_active"`                                 // 是否上架
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                          // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                      // 软删除时间

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"` // 规格列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
