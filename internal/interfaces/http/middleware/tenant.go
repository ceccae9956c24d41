package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/numbering/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// TenantIDKey is the gin context key holding the resolved tenant UUID
	TenantIDKey = "tenant_id"
	// TenantHeaderKey is the header the platform gateway sets
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantMiddlewareConfig holds configuration for the tenant middleware
type TenantMiddlewareConfig struct {
	// SkipPaths bypass tenant resolution (health checks, system endpoints)
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// TenantMiddleware resolves the tenant with the default configuration
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(TenantMiddlewareConfig{
		SkipPaths: []string{"/health"},
	})
}

// TenantMiddlewareWithConfig resolves the request's tenant and aborts
// with 401 when none is identified. JWT claims win over the X-Tenant-ID
// header; either way the value must parse as a UUID. There is no
// default-tenant fallback. The resolved ID is stored in the gin context
// and stamped onto the request-scoped logger so downstream logs and
// slow-query reports carry it.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		raw := GetJWTTenantID(c)
		if raw == "" {
			raw = c.GetHeader(TenantHeaderKey)
		}
		if raw == "" {
			abortTenantUnauthorized(c, "Tenant identification required")
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			abortTenantUnauthorized(c, "Invalid tenant ID format")
			return
		}

		c.Set(TenantIDKey, tenantID)

		ctx := c.Request.Context()
		log := cfg.Logger
		if log == nil {
			log = logger.FromContext(ctx)
		}
		ctx, _ = logger.WithTenantID(ctx, log, tenantID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetTenantUUID retrieves the tenant resolved by the middleware.
// The second return is false when the middleware did not run or the
// path was skipped.
func GetTenantUUID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(TenantIDKey)
	if !exists {
		return uuid.Nil, false
	}
	tenantID, ok := value.(uuid.UUID)
	return tenantID, ok
}

func abortTenantUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
