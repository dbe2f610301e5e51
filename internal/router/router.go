package router

import (
	"fmt"
	"strings"

	"github.com/localmart-next/internal/cache"
	"github.com/localmart-next/internal/config"
	publichandlers "github.com/localmart-next/internal/http/handlers/public"
	"github.com/localmart-next/internal/http/response"
	"github.com/localmart-next/internal/logger"
	"github.com/localmart-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "lm"
	}
	cartWriteRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:cart_write", redisPrefix),
		WindowSeconds: cfg.Security.CartRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CartRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.CartRateLimit.BlockSeconds,
	}
	cartWriteLimiter := RateLimitMiddleware(cache.Client(), cartWriteRule, KeyByOwner)

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	// 门店信息无需归属身份
	r.GET("/api/v1/store", publicHandler.GetStoreInfo)

	api := r.Group("/api/v1")
	api.Use(OwnerResolutionMiddleware(cfg.UserJWT.SecretKey, c.UserRepo, c.SessionRepo))
	{
		cart := api.Group("/cart")
		{
			cart.GET("", publicHandler.GetCart)
			cart.POST("/items", cartWriteLimiter, publicHandler.AddCartItem)
			cart.PATCH("/items", cartWriteLimiter, publicHandler.SetCartItemQuantity)
			cart.DELETE("/items", cartWriteLimiter, publicHandler.RemoveCartItem)
			cart.POST("/validate", publicHandler.ValidateCart)
			cart.POST("/merge", cartWriteLimiter, publicHandler.MergeCart)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", cartWriteLimiter, publicHandler.CreateOrder)
			orders.GET("", publicHandler.ListOrders)
			orders.GET("/:id", publicHandler.GetOrder)
			orders.POST("/:id/cancel", cartWriteLimiter, publicHandler.CancelOrder)
		}
	}

	return r
}
