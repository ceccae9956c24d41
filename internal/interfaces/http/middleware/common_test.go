package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsRouter(cfg CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/numbering/rules", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestCORSWithConfig(t *testing.T) {
	t.Run("whitelisted origin gets headers", func(t *testing.T) {
		router := corsRouter(CORSConfig{
			AllowOrigins:     []string{"https://erp.example.com"},
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Content-Type", "X-Tenant-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           time.Hour,
		})

		req := httptest.NewRequest("GET", "/numbering/rules", nil)
		req.Header.Set("Origin", "https://erp.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://erp.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Tenant-ID")
		assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		router := corsRouter(CORSConfig{AllowOrigins: []string{"https://erp.example.com"}})

		req := httptest.NewRequest("GET", "/numbering/rules", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("empty whitelist rejects every origin", func(t *testing.T) {
		router := corsRouter(DefaultCORSConfig())

		req := httptest.NewRequest("GET", "/numbering/rules", nil)
		req.Header.Set("Origin", "https://erp.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard allows any origin without credentials", func(t *testing.T) {
		router := corsRouter(CORSConfig{
			AllowOrigins:     []string{"*"},
			AllowCredentials: true,
		})

		req := httptest.NewRequest("GET", "/numbering/rules", nil)
		req.Header.Set("Origin", "https://anything.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight always answers 204", func(t *testing.T) {
		router := corsRouter(CORSConfig{AllowOrigins: []string{"https://erp.example.com"}})

		req := httptest.NewRequest("OPTIONS", "/numbering/rules", nil)
		req.Header.Set("Origin", "https://erp.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://erp.example.com", w.Header().Get("Access-Control-Allow-Origin"))

		// Disallowed origins still get the 204, just without headers
		req = httptest.NewRequest("OPTIONS", "/numbering/rules", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(captured *string) *gin.Engine {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/numbering/sequences", func(c *gin.Context) {
			*captured = c.GetString("request_id")
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	t.Run("generates an ID when the caller sends none", func(t *testing.T) {
		var captured string
		router := newRouter(&captured)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/numbering/sequences", nil))

		require.NotEmpty(t, captured)
		_, err := uuid.Parse(captured)
		assert.NoError(t, err)
		assert.Equal(t, captured, w.Header().Get("X-Request-ID"))
	})

	t.Run("propagates the caller's ID", func(t *testing.T) {
		var captured string
		router := newRouter(&captured)

		req := httptest.NewRequest("GET", "/numbering/sequences", nil)
		req.Header.Set("X-Request-ID", "gateway-715")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "gateway-715", captured)
		assert.Equal(t, "gateway-715", w.Header().Get("X-Request-ID"))
	})
}

func TestSecure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(mw gin.HandlerFunc) http.Header {
		router := gin.New()
		router.Use(mw)
		router.GET("/health", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		return w.Header()
	}

	t.Run("default headers", func(t *testing.T) {
		h := serve(Secure())

		assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
		assert.Contains(t, h.Get("Content-Security-Policy"), "default-src 'self'")
		assert.Contains(t, h.Get("Permissions-Policy"), "camera=()")
		// HSTS off until TLS is configured
		assert.Empty(t, h.Get("Strict-Transport-Security"))
	})

	t.Run("hsts header composition", func(t *testing.T) {
		h := serve(SecureWithConfig(SecurityConfig{
			HSTSEnabled:           true,
			HSTSMaxAge:            86400,
			HSTSIncludeSubdomains: true,
			HSTSPreload:           true,
		}))

		assert.Equal(t, "max-age=86400; includeSubDomains; preload", h.Get("Strict-Transport-Security"))
	})

	t.Run("csp can be disabled", func(t *testing.T) {
		h := serve(SecureWithConfig(SecurityConfig{CSPEnabled: false}))
		assert.Empty(t, h.Get("Content-Security-Policy"))
	})
}
