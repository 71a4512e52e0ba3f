// Package main is the entry point for the chimed sound daemon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chimekit/chime/internal/adapters/backend/beepaudio"
	"github.com/chimekit/chime/internal/adapters/backend/execplay"
	"github.com/chimekit/chime/internal/adapters/backend/memory"
	"github.com/chimekit/chime/internal/adapters/flags"
	"github.com/chimekit/chime/internal/adapters/http"
	"github.com/chimekit/chime/internal/adapters/http/handlers"
	"github.com/chimekit/chime/internal/app"
	"github.com/chimekit/chime/internal/platform/config"
	"github.com/chimekit/chime/internal/platform/logging"
	"github.com/chimekit/chime/internal/platform/telemetry"
	"github.com/chimekit/chime/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	profile := os.Getenv("CHIME_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// Fail fast on bad configuration.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting chimed",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("driver", cfg.Sound.Driver),
	)

	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	backend, err := newBackend(&cfg.Sound, logger)
	if err != nil {
		return err
	}

	featureFlags := flags.New(cfg.Flags)

	sounds := app.NewSoundContext(app.SoundContextConfig{
		Backend:         backend,
		Flags:           featureFlags,
		Logger:          logger,
		ApplicationName: cfg.App.Name,
		ApplicationID:   "com.chimekit.chimed",
		DefaultAttrs:    cfg.Sound.DefaultAttrs,
	})

	// Connect to the audio backend eagerly so a broken audio stack is
	// visible at startup rather than on the first play.
	if err := sounds.Open(ctx); err != nil {
		return fmt.Errorf("opening sound backend: %w", err)
	}

	defer func() {
		if closeErr := sounds.Close(); closeErr != nil {
			logger.Error("sound context close error", slog.Any("error", closeErr))
		}
	}()

	soundService := app.NewSoundService(app.SoundServiceConfig{
		Sounds: sounds,
		Logger: logger,
	})

	if len(cfg.Sound.Precache) > 0 {
		soundService.Precache(ctx, cfg.Sound.Precache, cfg.Sound.PrecacheWorkers)
	}

	healthRegistry := ports.NewHealthRegistry()
	if err := healthRegistry.Register(soundBackendChecker{sounds}); err != nil {
		return fmt.Errorf("registering backend health check: %w", err)
	}

	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo)
	soundHandler := handlers.NewSoundHandler(soundService)

	server := http.New(&cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:        logger,
		AuthConfig:    &cfg.Auth,
		AppConfig:     &cfg.App,
		HealthHandler: healthHandler,
		SoundHandler:  soundHandler,
		Timeout:       cfg.Server.RequestTimeout,
	})

	serverErr := server.Start()

	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// newBackend builds the audio backend for the configured driver.
func newBackend(cfg *config.SoundConfig, logger *slog.Logger) (ports.Backend, error) {
	switch cfg.Driver {
	case "beep":
		return beepaudio.New(beepaudio.Config{
			ThemeDir:   cfg.ThemeDir,
			SampleRate: cfg.SampleRate,
			Logger:     logger,
		}), nil
	case "exec":
		return execplay.New(execplay.Config{
			ThemeDir: cfg.ThemeDir,
			Player:   cfg.Player,
			Logger:   logger,
		}), nil
	case "null":
		return memory.New(memory.HandleOptions{AutoComplete: true}), nil
	default:
		return nil, fmt.Errorf("unknown sound driver %q", cfg.Driver)
	}
}

// soundBackendChecker reports backend health by probing the playback
// context's handle.
type soundBackendChecker struct {
	sounds *app.SoundContext
}

func (c soundBackendChecker) Name() string { return "sound-backend" }

func (c soundBackendChecker) Check(ctx context.Context) error {
	return c.sounds.Init(ctx)
}

// waitForShutdown blocks until a shutdown signal or server error, then
// drains the HTTP server within the configured timeout.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
