package public

import (
	"strconv"

	"github.com/localmart-next/internal/http/response"
	"github.com/localmart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	Items []service.CreateOrderItem `json:"items" binding:"required"`
}

// OrderListQuery 订单列表查询参数
type OrderListQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "order id invalid", nil)
		return 0, false
	}
	return uint(id), true
}

// CreateOrder 下单（全有或全无的库存预占）
func (h *Handler) CreateOrder(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.CreateOrder(owner, req.Items)
	if err != nil {
		respondWithMappedError(c, err, orderCommonErrorRules, response.CodeInternal, "order create failed")
		return
	}
	response.Success(c, order)
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(owner, orderID)
	if err != nil {
		respondWithMappedError(c, err, orderCommonErrorRules, response.CodeInternal, "order fetch failed")
		return
	}
	response.Success(c, order)
}

// ListOrders 归属者订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		return
	}
	var query OrderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 || query.PageSize > 100 {
		query.PageSize = 20
	}
	orders, total, err := h.OrderService.ListOrders(owner, query.Page, query.PageSize)
	if err != nil {
		respondWithMappedError(c, err, orderCommonErrorRules, response.CodeInternal, "order list failed")
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(query.Page, query.PageSize, total))
}

// CancelOrder 取消待支付订单并回补库存
func (h *Handler) CancelOrder(c *gin.Context) {
	owner, ok := getOwner(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(owner, orderID)
	if err != nil {
		respondWithMappedError(c, err, orderCommonErrorRules, response.CodeInternal, "order cancel failed")
		return
	}
	response.Success(c, order)
}
