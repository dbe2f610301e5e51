package models

import "time"

// CartSession 匿名购物车会话。MergedAt 是会话并入用户的一次性标记：
// 同一会话最多并入一次，重复登录不会重复搬移购物车行。
type CartSession struct {
	ID        string     `gorm:"primarykey;type:varchar(64)" json:"id"` // 会话ID（uuid）
	UserID    *uint      `gorm:"index" json:"user_id"`                  // 并入的用户ID
	MergedAt  *time.Time `json:"merged_at"`                             // 并入时间（幂等标记）
	CreatedAt time.Time  `gorm:"index" json:"created_at"`               // 创建时间
	UpdatedAt time.Time  `json:"updated_at"`                            // 更新时间
}

// TableName 指定表名
func (CartSession) TableName() string {
	return "cart_sessions"
}

// Merged 会话是否已并入用户
func (s *CartSession) Merged() bool {
	return s != nil && s.MergedAt != nil
}
