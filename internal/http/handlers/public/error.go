package public

import (
	"github.com/localmart-next/internal/http/response"
	"github.com/localmart-next/internal/logger"

	"github.com/gin-gonic/gin"
)

// respondError 返回错误响应，并在有原始错误时记录日志
func respondError(c *gin.Context, code int, msg string, err error) {
	respondErrorWithData(c, code, msg, nil, err)
}

// respondErrorWithData 返回附带业务数据的错误响应（如缺货明细）
func respondErrorWithData(c *gin.Context, code int, msg string, data interface{}, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		requestID := ""
		if value, ok := c.Get("request_id"); ok {
			if id, ok := value.(string); ok {
				requestID = id
			}
		}
		logger.Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"request_id", requestID,
			"error", err,
		)
	}
	response.ErrorWithData(c, appErr.Code, appErr.Message, data)
}
