package flags

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chimekit/chime/internal/ports"
)

func TestStaticIsAFeatureFlagsPort(t *testing.T) {
	var ff ports.FeatureFlags = New(map[string]string{"playback.enabled": "false"})

	assert.False(t, ff.IsEnabled(context.Background(), "playback.enabled", true))
}

func TestIsEnabled(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		seed         map[string]string
		flag         string
		defaultValue bool
		want         bool
	}{
		{
			name: "true value",
			seed: map[string]string{"playback.enabled": "true"},
			flag: "playback.enabled",
			want: true,
		},
		{
			name: "false value",
			seed: map[string]string{"playback.enabled": "false"},
			flag: "playback.enabled",
			want: false,
		},
		{
			name:         "unknown flag falls back",
			seed:         map[string]string{},
			flag:         "playback.enabled",
			defaultValue: true,
			want:         true,
		},
		{
			name:         "unparseable value falls back",
			seed:         map[string]string{"playback.enabled": "yes please"},
			flag:         "playback.enabled",
			defaultValue: true,
			want:         true,
		},
		{
			name: "numeric bool",
			seed: map[string]string{"playback.enabled": "1"},
			flag: "playback.enabled",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.seed)

			assert.Equal(t, tt.want, s.IsEnabled(ctx, tt.flag, tt.defaultValue))
		})
	}
}

func TestGetString(t *testing.T) {
	ctx := context.Background()
	s := New(map[string]string{"theme.name": "ocean"})

	assert.Equal(t, "ocean", s.GetString(ctx, "theme.name", "freedesktop"))
	assert.Equal(t, "freedesktop", s.GetString(ctx, "missing", "freedesktop"))
}

func TestGetInt(t *testing.T) {
	ctx := context.Background()
	s := New(map[string]string{
		"volume.floor": "-20",
		"bogus":        "loud",
	})

	assert.Equal(t, -20, s.GetInt(ctx, "volume.floor", 0))
	assert.Equal(t, 7, s.GetInt(ctx, "missing", 7))
	assert.Equal(t, 7, s.GetInt(ctx, "bogus", 7))
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	s := New(map[string]string{"playback.enabled": "true"})

	s.Set("playback.enabled", "false")

	assert.False(t, s.IsEnabled(ctx, "playback.enabled", true))
}

// TestSet_Concurrent flips a flag while readers evaluate it; run with the
// race detector.
func TestSet_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := New(map[string]string{"playback.enabled": "true"})

	var wg sync.WaitGroup

	for range 4 {
		wg.Add(2)

		go func() {
			defer wg.Done()
			for range 100 {
				s.Set("playback.enabled", "false")
				s.Set("playback.enabled", "true")
			}
		}()

		go func() {
			defer wg.Done()
			for range 100 {
				_ = s.IsEnabled(ctx, "playback.enabled", true)
			}
		}()
	}

	wg.Wait()
}

func TestNew_CopiesSeed(t *testing.T) {
	ctx := context.Background()
	seed := map[string]string{"playback.enabled": "true"}

	s := New(seed)
	seed["playback.enabled"] = "false"

	assert.True(t, s.IsEnabled(ctx, "playback.enabled", false))
}
