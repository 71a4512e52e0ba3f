package ports

import (
	"context"
)

// FeatureFlags evaluates runtime toggles without tying callers to a flag
// provider. The daemon uses it for operational switches such as muting all
// playback; evaluation is synchronous and must always fall back to the
// given default when the flag is unknown or the provider is unreachable.
type FeatureFlags interface {
	// IsEnabled reports whether a boolean flag is on, or defaultValue
	// when the flag does not exist or evaluation fails.
	IsEnabled(ctx context.Context, flag string, defaultValue bool) bool

	// GetString returns a string flag value, or defaultValue when the
	// flag does not exist or evaluation fails.
	GetString(ctx context.Context, flag string, defaultValue string) string

	// GetInt returns an integer flag value, or defaultValue when the
	// flag does not exist or evaluation fails.
	GetInt(ctx context.Context, flag string, defaultValue int) int
}
