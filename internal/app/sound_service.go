package app

import (
	"context"
	"log/slog"

	"github.com/chimekit/chime/internal/domain"
	"github.com/chimekit/chime/internal/platform/logging"
)

// SoundService orchestrates the daemon's sound use cases on top of the
// playback coordinator: triggering sounds, priming the backend cache, and
// maintaining context-level attributes. It depends on SoundContext rather
// than on any transport.
type SoundService struct {
	sounds   *SoundContext
	registry *CacheRegistry
	logger   *slog.Logger
}

// SoundServiceConfig contains the dependencies for the sound service.
type SoundServiceConfig struct {
	Sounds   *SoundContext
	Registry *CacheRegistry
	Logger   *slog.Logger
}

// NewSoundService creates a sound service with the provided dependencies.
func NewSoundService(cfg SoundServiceConfig) *SoundService {
	if cfg.Sounds == nil {
		panic("app: SoundService requires a SoundContext")
	}

	registry := cfg.Registry
	if registry == nil {
		registry = NewCacheRegistry()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SoundService{
		sounds:   cfg.Sounds,
		registry: registry,
		logger:   logger.With(slog.String("component", "app.SoundService")),
	}
}

// Trigger submits a play request for the given attributes. When wait is
// false it returns as soon as the backend accepts the request; when true
// it uses the awaitable path and blocks until playback finishes or ctx
// expires.
func (s *SoundService) Trigger(ctx context.Context, attrs map[string]string, wait bool) error {
	logger := logging.FromContext(ctx)

	if !wait {
		err := s.sounds.PlayMap(ctx, attrs)
		if err != nil {
			logger.WarnContext(ctx, "play submission failed", slog.Any("error", err))

			return err
		}

		return nil
	}

	task := s.sounds.PlayAsyncMap(ctx, attrs)

	err := s.sounds.Finish(ctx, task)
	if err != nil {
		logger.WarnContext(ctx, "awaited play failed",
			slog.Uint64("token", uint64(task.Token())),
			slog.Any("error", err),
		)

		return err
	}

	return nil
}

// CacheSound pre-registers the sound with the backend and records it.
func (s *SoundService) CacheSound(ctx context.Context, attrs map[string]string) (CachedSound, error) {
	err := s.sounds.CacheMap(ctx, attrs)
	if err != nil {
		return CachedSound{}, err
	}

	list, err := domain.AttrListFromMap(attrs)
	if err != nil {
		return CachedSound{}, err
	}

	entry := s.registry.Record(list)

	logging.FromContext(ctx).InfoContext(ctx, "sound cached",
		slog.String("cache_id", entry.ID),
		slog.String("event_id", entry.EventID),
	)

	return entry, nil
}

// ListCached returns up to limit cache entries after the given cursor ID.
func (s *SoundService) ListCached(_ context.Context, afterID string, limit int) []CachedSound {
	return s.registry.ListAfter(afterID, limit)
}

// UpdateAttrs merges attributes into the context's persistent set.
func (s *SoundService) UpdateAttrs(ctx context.Context, attrs map[string]string) error {
	return s.sounds.ChangeAttrsMap(ctx, attrs)
}

// Precache warms the backend cache with the given sounds using bounded
// concurrency. Failures are logged per sound and do not abort the rest;
// the number of successfully cached sounds is returned.
func (s *SoundService) Precache(ctx context.Context, sounds []map[string]string, workers int) int {
	if len(sounds) == 0 {
		return 0
	}

	fns := make([]func(context.Context) (CachedSound, error), len(sounds))
	for i, attrs := range sounds {
		fns[i] = func(ctx context.Context) (CachedSound, error) {
			return s.CacheSound(ctx, attrs)
		}
	}

	results := ParallelPartialLimit(ctx, workers, fns...)

	cached := 0

	for i, r := range results {
		if r.Err != nil {
			s.logger.WarnContext(ctx, "precache failed",
				slog.Any("attrs", sounds[i]),
				slog.Any("error", r.Err),
			)

			continue
		}

		cached++
	}

	s.logger.InfoContext(ctx, "precache complete",
		slog.Int("requested", len(sounds)),
		slog.Int("cached", cached),
	)

	return cached
}
