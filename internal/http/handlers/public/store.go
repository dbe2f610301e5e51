package public

import (
	"time"

	"github.com/localmart-next/internal/cache"
	"github.com/localmart-next/internal/constants"
	"github.com/localmart-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const storeInfoCacheKey = "public:store_info"
const storeInfoCacheTTL = 10 * time.Minute

// GetStoreInfo 公开门店信息：门店坐标、本地配送半径与下单参数
func (h *Handler) GetStoreInfo(c *gin.Context) {
	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), storeInfoCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	data := map[string]interface{}{
		"store": map[string]interface{}{
			"lat":          h.Config.Locality.StoreLat,
			"lng":          h.Config.Locality.StoreLng,
			"radius_miles": h.Config.Locality.RadiusMiles,
		},
		"order": map[string]interface{}{
			"payment_expire_minutes": h.Config.Order.PaymentExpireMinutes,
		},
		"cart_session_header": constants.CartSessionHeader,
		"fulfillment_modes": []string{
			constants.FulfillmentModeLocalOnly,
			constants.FulfillmentModeShipOnly,
			constants.FulfillmentModeBoth,
		},
	}

	_ = cache.SetJSON(c.Request.Context(), storeInfoCacheKey, data, storeInfoCacheTTL)
	response.Success(c, data)
}
