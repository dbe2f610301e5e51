package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/localmart-next/internal/config"
	"github.com/localmart-next/internal/constants"
	"github.com/localmart-next/internal/http/response"
	"github.com/localmart-next/internal/models"
	"github.com/localmart-next/internal/repository"
	"github.com/localmart-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const cartOwnerKey = "cart_owner"
const cartSessionKey = "cart_session_id"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			constants.CartSessionHeader,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("http_request", "errors", c.Errors.String())
			return
		}
		log.Infow("http_request")
	}
}

func getRequestID(c *gin.Context) string {
	if value, ok := c.Get(requestIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// OwnerResolutionMiddleware 购物车归属身份解析中间件。
// 携带合法 Bearer 令牌的请求解析为用户身份；否则按 X-Cart-Session
// 头解析为匿名会话身份，缺失时铸造新会话并通过响应头回传。
func OwnerResolutionMiddleware(secretKey string, userRepo repository.UserRepository, sessionRepo repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := normalizeSessionID(c.GetHeader(constants.CartSessionHeader))
		if sessionID != "" {
			c.Set(cartSessionKey, sessionID)
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			userID, ok := authenticateUser(c, authHeader, secretKey, userRepo)
			if !ok {
				return
			}
			c.Set(cartOwnerKey, models.UserOwner(userID))
			c.Set("user_id", userID)
			c.Next()
			return
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			c.Set(cartSessionKey, sessionID)
		}
		if sessionRepo != nil {
			if _, err := sessionRepo.GetOrCreate(sessionID); err != nil {
				response.Error(c, response.CodeInternal, "cart session init failed")
				c.Abort()
				return
			}
		}
		c.Writer.Header().Set(constants.CartSessionHeader, sessionID)
		c.Set(cartOwnerKey, models.SessionOwner(sessionID))
		c.Next()
	}
}

func authenticateUser(c *gin.Context, authHeader, secretKey string, userRepo repository.UserRepository) (uint, bool) {
	if secretKey == "" {
		response.Unauthorized(c, "jwt secret missing")
		c.Abort()
		return 0, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		response.Unauthorized(c, "authorization header invalid")
		c.Abort()
		return 0, false
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &service.UserJWTClaims{}
	token, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		response.Unauthorized(c, "token invalid")
		c.Abort()
		return 0, false
	}
	if userRepo != nil {
		user, err := userRepo.GetByID(claims.UserID)
		if err != nil || user == nil || !user.IsActive {
			response.Unauthorized(c, "user disabled")
			c.Abort()
			return 0, false
		}
	}
	return claims.UserID, true
}

// normalizeSessionID 会话ID必须是 UUID，防止任意字符串占用会话命名空间
func normalizeSessionID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if _, err := uuid.Parse(raw); err != nil {
		return ""
	}
	return raw
}
