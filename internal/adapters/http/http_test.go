package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimekit/chime/internal/adapters/backend/memory"
	"github.com/chimekit/chime/internal/adapters/http/handlers"
	"github.com/chimekit/chime/internal/app"
	"github.com/chimekit/chime/internal/platform/config"
	"github.com/chimekit/chime/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: 1 << 20,
	}
}

func TestServerNew(t *testing.T) {
	cfg := testServerConfig()
	logger := testLogger()

	srv := New(cfg, logger)

	require.NotNil(t, srv)
	assert.NotNil(t, srv.engine)
	assert.NotNil(t, srv.httpServer)
	assert.Equal(t, cfg, srv.Config())
	assert.IsType(t, &gin.Engine{}, srv.Engine())
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		name string
		host string
		port int
		want string
	}{
		{name: "loopback", host: "127.0.0.1", port: 8080, want: "127.0.0.1:8080"},
		{name: "all interfaces", host: "0.0.0.0", port: 3000, want: "0.0.0.0:3000"},
		{name: "dynamic port", host: "localhost", port: 0, want: "localhost:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testServerConfig()
			cfg.Host = tt.host
			cfg.Port = tt.port

			assert.Equal(t, tt.want, New(cfg, testLogger()).Addr())
		})
	}
}

func TestServerStartShutdown(t *testing.T) {
	srv := New(testServerConfig(), testLogger())

	srv.Engine().GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	errCh := srv.Start()

	time.Sleep(100 * time.Millisecond)

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("server start error: %v", err)
		}
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	// Error channel closes once the listener stops.
	_, ok := <-errCh
	assert.False(t, ok)
}

func newTestSoundHandler(t *testing.T) *handlers.SoundHandler {
	t.Helper()

	sounds := app.NewSoundContext(app.SoundContextConfig{
		Backend: memory.New(memory.HandleOptions{AutoComplete: true}),
	})

	t.Cleanup(func() {
		_ = sounds.Close()
	})

	return handlers.NewSoundHandler(app.NewSoundService(app.SoundServiceConfig{Sounds: sounds}))
}

func TestSetupRouter(t *testing.T) {
	engine := gin.New()

	healthHandler := handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{})

	SetupRouter(engine, RouterConfig{
		Logger:        testLogger(),
		AuthConfig:    &config.AuthConfig{},
		AppConfig:     &config.AppConfig{Name: "chimed", Environment: "test", Version: "1.0.0"},
		HealthHandler: healthHandler,
		SoundHandler:  newTestSoundHandler(t),
		Timeout:       30 * time.Second,
	})

	paths := make(map[string]bool)
	for _, route := range engine.Routes() {
		paths[route.Method+" "+route.Path] = true
	}

	assert.True(t, paths["GET /-/live"])
	assert.True(t, paths["GET /-/ready"])
	assert.True(t, paths["POST /api/v1/sounds/play"])
	assert.True(t, paths["POST /api/v1/sounds/cache"])
	assert.True(t, paths["GET /api/v1/sounds"])
	assert.True(t, paths["PATCH /api/v1/context/attrs"])

	// Probe route responds without auth.
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRouterWithAPIKey(t *testing.T) {
	engine := gin.New()

	SetupRouter(engine, RouterConfig{
		Logger:       testLogger(),
		AuthConfig:   &config.AuthConfig{APIKey: "secret"},
		AppConfig:    &config.AppConfig{Name: "chimed", Environment: "test", Version: "1.0.0"},
		SoundHandler: newTestSoundHandler(t),
		Timeout:      time.Second,
	})

	// No key: rejected.
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sounds", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// With key: served.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sounds", nil)
	req.Header.Set("X-API-Key", "secret")

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRouterWithoutHandlers(t *testing.T) {
	engine := gin.New()

	require.NotPanics(t, func() {
		SetupRouter(engine, RouterConfig{
			Logger:    testLogger(),
			AppConfig: &config.AppConfig{Name: "chimed", Environment: "test", Version: "1.0.0"},
		})
	})
}

func TestSetupMinimalRouter(t *testing.T) {
	t.Run("probe endpoints only", func(t *testing.T) {
		engine := gin.New()
		healthHandler := handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{Version: "1.0.0"})

		SetupMinimalRouter(engine, testLogger(), healthHandler)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("nil health handler", func(t *testing.T) {
		require.NotPanics(t, func() {
			SetupMinimalRouter(gin.New(), testLogger(), nil)
		})
	})
}

func TestNewDefaultRouterConfig(t *testing.T) {
	logger := testLogger()
	appCfg := &config.AppConfig{Name: "chimed", Environment: "test", Version: "1.0.0"}
	authCfg := &config.AuthConfig{}
	healthHandler := handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{})
	soundHandler := newTestSoundHandler(t)

	cfg := NewDefaultRouterConfig(logger, appCfg, authCfg, healthHandler, soundHandler)

	assert.Equal(t, logger, cfg.Logger)
	assert.Equal(t, appCfg, cfg.AppConfig)
	assert.Equal(t, authCfg, cfg.AuthConfig)
	assert.Equal(t, healthHandler, cfg.HealthHandler)
	assert.Equal(t, soundHandler, cfg.SoundHandler)
	assert.Equal(t, DefaultRequestTimeout, cfg.Timeout)
}
