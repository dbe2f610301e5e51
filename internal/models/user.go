package models

import (
	"time"

	"gorm.io/gorm"
)

// User 买家账号（本核心只读：邮箱与默认地址坐标）
type User struct {
	ID         uint           `gorm:"primarykey" json:"id"`                     // 主键
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`        // 邮箱
	AddressLat *float64       `gorm:"type:decimal(10,7)" json:"address_lat"`    // 默认地址纬度
	AddressLng *float64       `gorm:"type:decimal(10,7)" json:"address_lng"`    // 默认地址经度
	IsActive   bool           `gorm:"default:true" json:"is_active"`            // 是否启用
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt  time.Time      `json:"updated_at"`                               // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                           // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// HasCoordinates 地址坐标是否已解析
func (u *User) HasCoordinates() bool {
	return u != nil && u.AddressLat != nil && u.AddressLng != nil
}
