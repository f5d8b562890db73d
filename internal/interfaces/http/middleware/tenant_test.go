package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectingValidator struct{}

func (rejectingValidator) ValidateTenant(tenantID string) error {
	return errors.New("tenant suspended")
}

func tenantTestRouter(cfg TenantMiddlewareConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TenantMiddlewareWithConfig(cfg))
	r.GET("/api/v1/suppliers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant": GetTenantID(c)})
	})
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestTenantMiddleware(t *testing.T) {
	tenantID := uuid.New().String()

	t.Run("accepts a valid tenant header", func(t *testing.T) {
		r := tenantTestRouter(DefaultTenantConfig())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers", nil)
		req.Header.Set(TenantHeaderKey, tenantID)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tenantID)
	})

	t.Run("rejects a missing header when required", func(t *testing.T) {
		r := tenantTestRouter(DefaultTenantConfig())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a non-uuid header", func(t *testing.T) {
		r := tenantTestRouter(DefaultTenantConfig())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers", nil)
		req.Header.Set(TenantHeaderKey, "acme")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skips configured paths", func(t *testing.T) {
		r := tenantTestRouter(DefaultTenantConfig())
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("validator rejection yields 401", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.Validator = rejectingValidator{}
		r := tenantTestRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers", nil)
		req.Header.Set(TenantHeaderKey, tenantID)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetTenantUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	id := uuid.New()
	c.Set(TenantIDKey, id.String())

	got, err := GetTenantUUID(c)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, id, MustGetTenantUUID(c))
}
