package public

import (
	"errors"

	"github.com/localmart-next/internal/http/response"
	"github.com/localmart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车写请求
type CartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	VariantID uint `json:"variant_id"`
	Quantity  int  `json:"quantity"`
}

// GetCart 获取购物车（读取前先规约重复行）
func (h *Handler) GetCart(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		return
	}
	detail, err := h.CartService.ListByOwner(owner)
	if err != nil {
		respondWithMappedError(c, err, cartCommonErrorRules, response.CodeInternal, "cart fetch failed")
		return
	}
	response.Success(c, detail)
}

// AddCartItem 向购物车增加数量
func (h *Handler) AddCartItem(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	result, err := h.CartService.AddItem(owner, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartCommonErrorRules, response.CodeInternal, "cart update failed")
		return
	}
	response.Success(c, result)
}

// SetCartItemQuantity 设置购物车键绝对数量（0 即删除）
func (h *Handler) SetCartItemQuantity(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	result, err := h.CartService.SetQuantity(owner, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartCommonErrorRules, response.CodeInternal, "cart update failed")
		return
	}
	response.Success(c, result)
}

// RemoveCartItem 删除购物车键
func (h *Handler) RemoveCartItem(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	removed, err := h.CartService.RemoveItem(owner, req.ProductID, req.VariantID)
	if err != nil {
		respondWithMappedError(c, err, cartCommonErrorRules, response.CodeInternal, "cart update failed")
		return
	}
	response.Success(c, gin.H{"removed": removed})
}

// ValidateCart 结算前校验购物车
func (h *Handler) ValidateCart(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		return
	}
	result, err := h.CartService.Validate(owner)
	if err != nil {
		respondWithMappedError(c, err, cartCommonErrorRules, response.CodeInternal, "cart validate failed")
		return
	}
	response.Success(c, result)
}

// MergeCart 登录后把匿名会话购物车并入当前用户（会话级幂等）
func (h *Handler) MergeCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	sessionID := getSessionID(c)
	if sessionID == "" {
		respondError(c, response.CodeBadRequest, "cart session required", nil)
		return
	}
	if err := h.CartService.MergeSessionIntoUser(sessionID, uid); err != nil {
		if errors.Is(err, service.ErrSessionRequired) {
			respondError(c, response.CodeBadRequest, "cart session required", nil)
			return
		}
		respondWithMappedError(c, err, cartCommonErrorRules, response.CodeInternal, "cart merge failed")
		return
	}
	response.Success(c, gin.H{"merged": true})
}
