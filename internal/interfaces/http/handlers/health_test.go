package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/pkg/errors"
)

func newHealthRouter(deps map[string]Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHealthHandler("1.2.3", deps).Register(router)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(newHealthRouter(nil), "/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"1.2.3"`)
}

func TestReadyz_AllHealthy(t *testing.T) {
	deps := map[string]Pinger{
		"postgres": PingerFunc(func(context.Context) error { return nil }),
		"redis":    PingerFunc(func(context.Context) error { return nil }),
	}

	rec := get(newHealthRouter(deps), "/readyz")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready"`)
}

func TestReadyz_DependencyDown(t *testing.T) {
	deps := map[string]Pinger{
		"postgres": PingerFunc(func(context.Context) error { return nil }),
		"redis": PingerFunc(func(context.Context) error {
			return errors.New(errors.ErrCodeCacheError, "connection refused")
		}),
	}

	rec := get(newHealthRouter(deps), "/readyz")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not ready")
	assert.Contains(t, rec.Body.String(), "connection refused")
}
