package public

import (
	"github.com/localmart-next/internal/http/response"
	"github.com/localmart-next/internal/models"

	"github.com/gin-gonic/gin"
)

// getOwner 取中间件解析出的购物车归属身份
func getOwner(c *gin.Context) (models.CartOwner, bool) {
	value, ok := c.Get("cart_owner")
	if !ok {
		respondError(c, response.CodeBadRequest, "cart owner not resolved", nil)
		return models.CartOwner{}, false
	}
	owner, ok := value.(models.CartOwner)
	if !ok || !owner.Valid() {
		respondError(c, response.CodeBadRequest, "cart owner invalid", nil)
		return models.CartOwner{}, false
	}
	return owner, true
}

// getUserID 取认证用户ID（登录专属接口）
func getUserID(c *gin.Context) (uint, bool) {
	owner, ok := getOwner(c)
	if !ok {
		return 0, false
	}
	if !owner.IsUser() {
		respondError(c, response.CodeUnauthorized, "login required", nil)
		return 0, false
	}
	return owner.UserID, true
}

// getSessionID 取请求头里的匿名会话ID（可为空）
func getSessionID(c *gin.Context) string {
	if value, ok := c.Get("cart_session_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
