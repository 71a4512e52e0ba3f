//go:build integration

package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimekit/chime/internal/adapters/backend/memory"
	httpadapter "github.com/chimekit/chime/internal/adapters/http"
	"github.com/chimekit/chime/internal/adapters/http/handlers"
	"github.com/chimekit/chime/internal/app"
	"github.com/chimekit/chime/internal/domain"
	"github.com/chimekit/chime/internal/platform/config"
	"github.com/chimekit/chime/internal/ports"
)

// newAPIServer builds the full router over the in-memory backend and serves
// it from an httptest server, mirroring the daemon's wiring.
func newAPIServer(t *testing.T, opts memory.HandleOptions, authCfg *config.AuthConfig) (*httptest.Server, *memory.Backend) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	backend := memory.New(opts)
	sounds := app.NewSoundContext(app.SoundContextConfig{Backend: backend})

	t.Cleanup(func() {
		_ = sounds.Close()
	})

	service := app.NewSoundService(app.SoundServiceConfig{Sounds: sounds})

	if authCfg == nil {
		authCfg = &config.AuthConfig{}
	}

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		AuthConfig:    authCfg,
		AppConfig:     &config.AppConfig{Name: "chimed", Environment: "test", Version: "dev"},
		HealthHandler: handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{}),
		SoundHandler:  handlers.NewSoundHandler(service),
	})

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return server, backend
}

// TestConcurrent_PlaySubmissions fires many play requests at once and
// verifies every submission reaches the backend with a distinct token.
func TestConcurrent_PlaySubmissions(t *testing.T) {
	server, backend := newAPIServer(t, memory.HandleOptions{}, nil)

	const numRequests = 50

	var wg sync.WaitGroup
	var accepted int32

	for range numRequests {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(server.URL+"/api/v1/sounds/play", "application/json",
				strings.NewReader(`{"attrs":{"event.id":"bell"}}`))
			if err != nil {
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusAccepted {
				atomic.AddInt32(&accepted, 1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(numRequests), atomic.LoadInt32(&accepted))

	plays := backend.Handles()[0].Plays()
	require.Len(t, plays, numRequests)

	tokens := make(map[uint32]bool, len(plays))
	for _, play := range plays {
		assert.False(t, tokens[play.Token], "token %d reused", play.Token)
		tokens[play.Token] = true
	}
}

// TestConcurrent_WaitedPlays runs waited plays concurrently against an
// auto-completing backend; every request should report played.
func TestConcurrent_WaitedPlays(t *testing.T) {
	server, _ := newAPIServer(t, memory.HandleOptions{AutoComplete: true}, nil)

	const numRequests = 20

	var wg sync.WaitGroup
	var played int32

	for range numRequests {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(server.URL+"/api/v1/sounds/play", "application/json",
				strings.NewReader(`{"attrs":{"event.id":"bell"},"wait":true}`))
			if err != nil {
				return
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode == http.StatusAccepted && strings.Contains(string(body), "played") {
				atomic.AddInt32(&played, 1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(numRequests), atomic.LoadInt32(&played))
}

// TestConcurrent_CacheAndList caches entries from many goroutines and
// verifies the registry converges on the full set.
func TestConcurrent_CacheAndList(t *testing.T) {
	server, backend := newAPIServer(t, memory.HandleOptions{}, nil)

	const numRequests = 30

	var wg sync.WaitGroup

	for range numRequests {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(server.URL+"/api/v1/sounds/cache", "application/json",
				strings.NewReader(`{"attrs":{"event.id":"bell"}}`))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}

	wg.Wait()

	assert.Len(t, backend.Handles()[0].Caches(), numRequests)

	resp, err := http.Get(server.URL + "/api/v1/sounds?limit=100")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, numRequests, strings.Count(string(body), `"event.id":"bell"`))
}

// TestConcurrent_AwaitedTasks verifies that awaitable plays complete
// independently when their callbacks resolve out of order.
func TestConcurrent_AwaitedTasks(t *testing.T) {
	backend := memory.New(memory.HandleOptions{})
	sounds := app.NewSoundContext(app.SoundContextConfig{Backend: backend})

	t.Cleanup(func() {
		_ = sounds.Close()
	})

	ctx := context.Background()

	const numTasks = 10

	tasks := make([]*app.PendingPlay, 0, numTasks)
	for range numTasks {
		task, err := sounds.PlayAsync(ctx, domain.AttrEventID, "bell")
		require.NoError(t, err)
		tasks = append(tasks, task)
	}

	// Resolve in reverse submission order.
	handle := backend.Handles()[0]
	for i := numTasks - 1; i >= 0; i-- {
		require.True(t, handle.Complete(tasks[i].Token(), domain.CodeSuccess))
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sounds.Finish(ctx, task))
		}()
	}

	wg.Wait()
}

// TestConcurrent_SharedContext hammers a single playback context with mixed
// operations to shake out data races under the race detector.
func TestConcurrent_SharedContext(t *testing.T) {
	backend := memory.New(memory.HandleOptions{AutoComplete: true})
	sounds := app.NewSoundContext(app.SoundContextConfig{Backend: backend})

	t.Cleanup(func() {
		_ = sounds.Close()
	})

	ctx := context.Background()

	const iterations = 20

	var wg sync.WaitGroup

	for range iterations {
		wg.Add(3)

		go func() {
			defer wg.Done()
			_ = sounds.Play(ctx, domain.AttrEventID, "bell")
		}()

		go func() {
			defer wg.Done()
			_ = sounds.Cache(ctx, domain.AttrEventID, "bell")
		}()

		go func() {
			defer wg.Done()
			_ = sounds.ChangeAttrs(ctx, domain.AttrVolume, "-3")
		}()
	}

	wg.Wait()

	handle := backend.Handles()[0]
	assert.Len(t, handle.Plays(), iterations)
	assert.Len(t, handle.Caches(), iterations)
}
