package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chimekit/chime/internal/adapters/http/handlers"
	"github.com/chimekit/chime/internal/adapters/http/middleware"
	"github.com/chimekit/chime/internal/platform/config"
	"github.com/chimekit/chime/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default deadline for API requests. Awaited
// plays run under it, so it must exceed the longest expected sound.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains the dependencies for route setup.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AuthConfig carries the API key settings for the sound endpoints.
	AuthConfig *config.AuthConfig

	// AppConfig identifies the daemon in telemetry.
	AppConfig *config.AppConfig

	// HealthHandler serves the internal probe endpoints.
	HealthHandler *handlers.HealthHandler

	// SoundHandler serves the sound API.
	SoundHandler *handlers.SoundHandler

	// Timeout is the per-request deadline for API routes.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the engine.
// Middleware order, first to last: recovery, request ID, correlation ID,
// tracing, logging (skips probe endpoints), then a per-route timeout on
// the API group. Probe routes under /-/ carry no auth and no timeout.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Middleware(cfg.AppConfig.Name),
		middleware.Logging(cfg.Logger),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.SimpleTimeout(cfg.Timeout))
	}

	if cfg.AuthConfig != nil && cfg.AuthConfig.APIKey != "" {
		apiV1.Use(middleware.RequireAPIKey(cfg.AuthConfig))
	}

	if cfg.SoundHandler != nil {
		cfg.SoundHandler.RegisterSoundRoutes(apiV1)
	}
}

// SetupMinimalRouter sets up a router with probe endpoints only. Used in
// tests and for deployments that drive sounds through another transport.
func SetupMinimalRouter(engine *gin.Engine, logger *slog.Logger, healthHandler *handlers.HealthHandler) {
	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
	)

	if healthHandler != nil {
		healthHandler.RegisterHealthRoutesOnEngine(engine)
	}
}

// NewDefaultRouterConfig creates a RouterConfig with the default timeout.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	authCfg *config.AuthConfig,
	healthHandler *handlers.HealthHandler,
	soundHandler *handlers.SoundHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		AuthConfig:    authCfg,
		AppConfig:     appCfg,
		HealthHandler: healthHandler,
		SoundHandler:  soundHandler,
		Timeout:       DefaultRequestTimeout,
	}
}
