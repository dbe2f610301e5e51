package models

import "time"

// OrderItem 订单项。UnitPrice 为下单瞬间快照，不回指商品实时价格。
type OrderItem struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                       // 主键
	OrderID    uint      `gorm:"not null;index" json:"order_id"`                             // 订单ID
	ProductID  uint      `gorm:"not null;index" json:"product_id"`                           // 商品ID
	VariantID  uint      `gorm:"not null;default:0" json:"variant_id"`                       // 规格ID（0 表示无规格）
	Title      string    `gorm:"not null" json:"title"`                                      // 商品名称快照
	UnitPrice  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`    // 单价快照
	Quantity   int       `gorm:"not null" json:"quantity"`                                   // 数量
	TotalPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`   // 行小计
	CreatedAt  time.Time `json:"created_at"`                                                 // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                                 // 更新时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
