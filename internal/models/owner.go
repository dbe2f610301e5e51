package models

import "strings"

// OwnerKind 购物车归属身份类型
type OwnerKind string

const (
	OwnerKindUser    OwnerKind = "user"    // 已登录用户
	OwnerKindSession OwnerKind = "session" // 匿名会话
)

// CartOwner 购物车归属身份（登录用户或匿名会话，二选一）
type CartOwner struct {
	Kind      OwnerKind
	UserID    uint
	SessionID string
}

// UserOwner 创建登录用户身份
func UserOwner(userID uint) CartOwner {
	return CartOwner{Kind: OwnerKindUser, UserID: userID}
}

// SessionOwner 创建匿名会话身份
func SessionOwner(sessionID string) CartOwner {
	return CartOwner{Kind: OwnerKindSession, SessionID: strings.TrimSpace(sessionID)}
}

// Valid 判断身份是否有效
func (o CartOwner) Valid() bool {
	switch o.Kind {
	case OwnerKindUser:
		return o.UserID > 0
	case OwnerKindSession:
		return o.SessionID != ""
	}
	return false
}

// IsUser 是否为登录用户身份
func (o CartOwner) IsUser() bool {
	return o.Kind == OwnerKindUser && o.UserID > 0
}
