package public

import (
	"errors"

	"github.com/localmart-next/internal/http/response"
	"github.com/localmart-next/internal/repository"
	"github.com/localmart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	// 多行缺货时附带逐行明细，前端可据此降量
	var shortage *service.StockShortageError
	if errors.As(err, &shortage) {
		respondErrorWithData(c, response.CodeUnprocessable, shortage.Error(),
			gin.H{"shortages": shortageDetails(shortage)}, nil)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, errorMessage(err, rule.msg), nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func shortageDetails(shortage *service.StockShortageError) []gin.H {
	details := make([]gin.H, 0, len(shortage.Shortages))
	for i := range shortage.Shortages {
		s := &shortage.Shortages[i]
		details = append(details, gin.H{
			"product_id": s.ProductID,
			"requested":  s.Requested,
			"available":  s.Available,
		})
	}
	return details
}

// errorMessage 业务错误自带细节时优先透出（缺货余量、距离等）
func errorMessage(err error, fallback string) string {
	var insufficient *service.InsufficientStockError
	if errors.As(err, &insufficient) {
		return insufficient.Error()
	}
	var restricted *service.LocalityRestrictedError
	if errors.As(err, &restricted) {
		return restricted.Error()
	}
	return fallback
}

var cartCommonErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCartItem, code: response.CodeBadRequest, msg: "cart item invalid"},
	{target: service.ErrInvalidOwner, code: response.CodeBadRequest, msg: "cart owner invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrVariantInvalid, code: response.CodeBadRequest, msg: "product variant invalid"},
	{target: service.ErrInsufficientStock, code: response.CodeUnprocessable, msg: "insufficient stock"},
	{target: service.ErrLocalityRestricted, code: response.CodeForbidden, msg: "product is local-delivery only"},
	{target: repository.ErrTxConflict, code: response.CodeConflict, msg: "operation conflicted, please retry"},
}

var orderCommonErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "order item invalid"},
	{target: service.ErrInvalidOwner, code: response.CodeBadRequest, msg: "cart owner invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrVariantInvalid, code: response.CodeBadRequest, msg: "product variant invalid"},
	{target: service.ErrInsufficientStock, code: response.CodeUnprocessable, msg: "insufficient stock"},
	{target: service.ErrLocalityRestricted, code: response.CodeForbidden, msg: "product is local-delivery only"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderCancelNotAllowed, code: response.CodeBadRequest, msg: "order cannot be canceled"},
	{target: repository.ErrTxConflict, code: response.CodeConflict, msg: "operation conflicted, please retry"},
}
