package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/numbering/internal/infrastructure/auth"
	"github.com/erp/numbering/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys for the authenticated caller. The tenant middleware and
// the handlers read these rather than re-parsing the token.
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// JWTMiddlewareConfig configures the authentication middleware.
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// SkipPaths bypass authentication entirely, exact match.
	SkipPaths []string
	// SkipPathPrefixes bypass authentication by prefix.
	SkipPathPrefixes []string
	// OnError overrides the default 401 response.
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig skips the health endpoints and nothing else.
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/health",
		},
	}
}

// JWTAuthMiddleware authenticates requests with the default config.
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig rejects any request on a non-skipped path
// that does not carry a valid bearer token. On success the claims land
// in the gin context and the request logger picks up the tenant, so
// every allocation log line names who asked.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipAuth(c.Request.URL.Path, cfg) {
			c.Next()
			return
		}

		tokenString, err := bearerToken(c)
		if err != nil {
			rejectUnauthenticated(c, cfg, err)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			rejectUnauthenticated(c, cfg, err)
			return
		}

		storeClaims(c, claims)

		// The gorm logger reads the tenant from the request context
		ctx := c.Request.Context()
		ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), claims.TenantID)
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("user_id", claims.UserID),
				zap.String("tenant_id", claims.TenantID),
			)
		}

		c.Next()
	}
}

// OptionalJWTAuthMiddleware extracts claims when a valid token is
// present but lets anonymous requests through untouched.
func OptionalJWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err == nil {
			// Best effort, an invalid token just leaves the
			// request unauthenticated
			if claims, err := jwtService.ValidateAccessToken(tokenString); err == nil {
				storeClaims(c, claims)
			}
		}
		c.Next()
	}
}

func skipAuth(path string, cfg JWTMiddlewareConfig) bool {
	for _, skipPath := range cfg.SkipPaths {
		if path == skipPath {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", auth.ErrInvalidToken
	}
	tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
	if tokenString == "" {
		return "", auth.ErrInvalidToken
	}
	return tokenString, nil
}

func storeClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTTenantIDKey, claims.TenantID)
}

func rejectUnauthenticated(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code, message := authErrorResponse(err)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func authErrorResponse(err error) (code, message string) {
	switch err {
	case auth.ErrExpiredToken:
		return "TOKEN_EXPIRED", "Token has expired"
	case auth.ErrTokenNotYetValid:
		return "TOKEN_NOT_VALID", "Token is not yet valid"
	case auth.ErrMissingTenantID:
		return "INVALID_TOKEN", "Token is missing tenant"
	case auth.ErrInvalidToken:
		return "INVALID_TOKEN", "Invalid token"
	}
	return "UNAUTHORIZED", "Authentication required"
}

// GetJWTClaims returns the authenticated caller's claims, or nil on an
// unauthenticated request.
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if value, exists := c.Get(JWTClaimsKey); exists {
		if claims, ok := value.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTUserID returns the authenticated user ID, or "".
func GetJWTUserID(c *gin.Context) string {
	return stringFromContext(c, JWTUserIDKey)
}

// GetJWTTenantID returns the tenant ID carried by the token, or "".
func GetJWTTenantID(c *gin.Context) string {
	return stringFromContext(c, JWTTenantIDKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if value, exists := c.Get(key); exists {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}
