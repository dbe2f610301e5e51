package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表。只有全部行项库存预占成功才会落库；
// 超时未支付由 worker 或读取路径取消并回补库存。
type Order struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                   // 主键
	OrderNo    string         `gorm:"uniqueIndex;not null" json:"order_no"`                   // 订单号
	UserID     uint           `gorm:"index" json:"user_id"`                                   // 用户ID（0 表示匿名）
	SessionID  string         `gorm:"type:varchar(64);index" json:"session_id"`               // 会话ID（匿名下单）
	Status     string         `gorm:"type:varchar(30);not null;index" json:"status"`          // 状态
	Currency   string         `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"` // 币种
	TotalAmount Money         `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 总金额
	ExpiresAt  *time.Time     `gorm:"index" json:"expires_at"`                                // 支付截止时间
	PaidAt     *time.Time     `json:"paid_at"`                                                // 支付时间
	CanceledAt *time.Time     `json:"canceled_at"`                                            // 取消时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt  time.Time      `json:"updated_at"`                                             // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
