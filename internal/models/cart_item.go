package models

import (
	"time"
)

// CartItem 购物车项。归属键是 (user_id|session_id, product_id, variant_id)。
// 故意不建唯一索引：并发添加允许产生重复行，由 Consolidate 收敛为每键一行。
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                       // 主键
	UserID    uint      `gorm:"index:idx_cart_user_key" json:"user_id"`                     // 用户ID（0 表示匿名）
	SessionID string    `gorm:"type:varchar(64);index:idx_cart_session_key" json:"session_id"` // 会话ID（空表示已登录）
	ProductID uint      `gorm:"not null;index:idx_cart_user_key;index:idx_cart_session_key" json:"product_id"` // 商品ID
	VariantID uint      `gorm:"not null;default:0;index:idx_cart_user_key;index:idx_cart_session_key" json:"variant_id"` // 规格ID（0 表示无规格）
	Quantity  int       `gorm:"not null" json:"quantity"`                                   // 数量（恒 > 0）
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                    // 更新时间

	Product *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"` // 关联规格
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// UnitPrice 取行的成交单价（规格价格覆盖优先）
func (i *CartItem) UnitPrice() Money {
	if i == nil {
		return Money{}
	}
	if i.Variant != nil && i.Variant.PriceAmount != nil {
		return *i.Variant.PriceAmount
	}
	if i.Product != nil {
		return i.Product.PriceAmount
	}
	return Money{}
}
