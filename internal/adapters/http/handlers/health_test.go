package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimekit/chime/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubChecker implements ports.HealthChecker for handler tests.
type stubChecker struct {
	name string
	err  error
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(context.Context) error { return s.err }

func newHealthRouter(t *testing.T, checkers ...ports.HealthChecker) *gin.Engine {
	t.Helper()

	registry := ports.NewHealthRegistry()
	for _, checker := range checkers {
		require.NoError(t, registry.Register(checker))
	}

	handler := NewHealthHandler(registry, NewBuildInfo("1.2.3", "abc1234", "2026-08-23T00:00:00Z"))

	router := gin.New()
	handler.RegisterHealthRoutesOnEngine(router)

	return router
}

func TestLiveness(t *testing.T) {
	router := newHealthRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("healthy backend", func(t *testing.T) {
		router := newHealthRouter(t, &stubChecker{name: "sound-backend"})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Status string                        `json:"status"`
			Checks map[string]*ports.CheckResult `json:"checks"`
		}

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		require.Contains(t, resp.Checks, "sound-backend")
		assert.Equal(t, ports.HealthStatusHealthy, resp.Checks["sound-backend"].Status)
	})

	t.Run("unhealthy backend is 503", func(t *testing.T) {
		router := newHealthRouter(t, &stubChecker{
			name: "sound-backend",
			err:  errors.New("audio daemon unreachable"),
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "audio daemon unreachable")
	})
}

func TestBuildInfoHandler(t *testing.T) {
	router := newHealthRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/build", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var info BuildInfo

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc1234", info.Commit)
	assert.NotEmpty(t, info.GoVersion)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newHealthRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
