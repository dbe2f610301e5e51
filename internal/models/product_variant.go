package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant 商品规格（可选价格覆盖；variant_id 为 0 表示无规格）
type ProductVariant struct {
	ID          uint           `gorm:"primarykey" json:"id"`                       // 主键
	ProductID   uint           `gorm:"not null;index" json:"product_id"`           // 商品ID
	Name        string         `gorm:"not null" json:"name"`                       // 规格名称
	PriceAmount *Money         `gorm:"type:decimal(20,2)" json:"price_amount"`     // 价格覆盖（空则用商品价）
	IsActive    bool           `gorm:"default:true" json:"is_active"`              // 是否启用
	CreatedAt   time.Time      `json:"created_at"`                                 // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                 // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                             // 软删除时间
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}
