package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/infrastructure/logger"
)

const (
	// RequestIDHeader is the header carrying the request ID
	RequestIDHeader = "X-Request-ID"
	// TenantIDHeader is the header carrying the tenant ID
	TenantIDHeader = "X-Tenant-ID"

	// ContextKeyRequestID is the gin context key for the request ID
	ContextKeyRequestID = "request_id"
	// ContextKeyTenantID is the gin context key for the tenant ID
	ContextKeyTenantID = "tenant_id"
)

// DefaultTenantID is used when no tenant header is present (single-tenant
// deployments and development)
var DefaultTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// ContextLogger attaches the base logger to every request context so that
// downstream middleware and handlers can enrich it
func ContextLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithContext(c.Request.Context(), log)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestID assigns a request ID to every request, honoring an inbound
// X-Request-ID header
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = generateRequestID()
		}
		c.Set(ContextKeyRequestID, id)
		c.Writer.Header().Set(RequestIDHeader, id)

		ctx := logger.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Tenant resolves the tenant ID from the request and threads it through the
// request context. Tenant propagation is always explicit; there is no
// ambient per-request global.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := DefaultTenantID
		if raw := c.GetHeader(TenantIDHeader); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err == nil {
				tenantID = parsed
			}
		}
		c.Set(ContextKeyTenantID, tenantID.String())

		ctx := logger.WithTenantID(c.Request.Context(), tenantID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequestLogger logs each request with latency and status
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ContextKeyRequestID)),
		)
	}
}

// Recovery recovers from handler panics and returns a 500
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("handler panicked",
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
				)
				c.AbortWithStatusJSON(500, gin.H{
					"success": false,
					"error":   gin.H{"code": "INTERNAL_ERROR", "message": "An unexpected error occurred"},
				})
			}
		}()
		c.Next()
	}
}

// generateRequestID produces a random 16-hex-character request ID
func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}
