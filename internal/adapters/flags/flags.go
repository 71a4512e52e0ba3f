// Package flags provides a configuration-backed feature flag adapter.
// Flags are seeded from the static daemon configuration and the owning
// process can flip them with Set; there is no external flag provider.
package flags

import (
	"context"
	"strconv"
	"sync"

	"github.com/chimekit/chime/internal/ports"
)

var _ ports.FeatureFlags = (*Static)(nil)

// Static is a ports.FeatureFlags over an in-memory flag table.
type Static struct {
	mu    sync.RWMutex
	flags map[string]string
}

// New creates a flag adapter seeded from the given table. Values are kept
// as strings and coerced per accessor, so one table serves boolean,
// string and integer flags alike.
func New(seed map[string]string) *Static {
	flags := make(map[string]string, len(seed))
	for name, value := range seed {
		flags[name] = value
	}

	return &Static{flags: flags}
}

// IsEnabled implements ports.FeatureFlags.
func (s *Static) IsEnabled(_ context.Context, flag string, defaultValue bool) bool {
	s.mu.RLock()
	raw, ok := s.flags[flag]
	s.mu.RUnlock()

	if !ok {
		return defaultValue
	}

	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}

	return enabled
}

// GetString implements ports.FeatureFlags.
func (s *Static) GetString(_ context.Context, flag string, defaultValue string) string {
	s.mu.RLock()
	raw, ok := s.flags[flag]
	s.mu.RUnlock()

	if !ok {
		return defaultValue
	}

	return raw
}

// GetInt implements ports.FeatureFlags.
func (s *Static) GetInt(_ context.Context, flag string, defaultValue int) int {
	s.mu.RLock()
	raw, ok := s.flags[flag]
	s.mu.RUnlock()

	if !ok {
		return defaultValue
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}

	return n
}

// Set overrides a flag at runtime.
func (s *Static) Set(flag, value string) {
	s.mu.Lock()
	s.flags[flag] = value
	s.mu.Unlock()
}
