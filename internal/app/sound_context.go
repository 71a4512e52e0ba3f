// Package app contains application services that orchestrate use cases.
// The central one is SoundContext, the playback session coordinator: it
// owns the single backend handle, marshals attribute sets into backend
// requests, bridges the backend's completion callbacks onto pending tasks,
// and forwards caller cancellation to backend cancel calls.
package app

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/chimekit/chime/internal/domain"
	"github.com/chimekit/chime/internal/platform/logging"
	"github.com/chimekit/chime/internal/ports"
)

// FlagPlaybackEnabled is the feature flag gating all play submissions.
// When disabled, play requests fail with the backend's disabled code
// before reaching the backend.
const FlagPlaybackEnabled = "playback.enabled"

// SoundContextConfig contains the dependencies and identity attributes for
// a sound context. Application identity is passed explicitly here instead
// of being read from process-global state.
type SoundContextConfig struct {
	Backend ports.Backend
	Flags   ports.FeatureFlags
	Logger  *slog.Logger

	// ApplicationName and ApplicationID are applied to the backend handle
	// at initialization as application.name / application.id.
	ApplicationName string
	ApplicationID   string

	// DefaultAttrs are additional context-level attributes applied at
	// initialization. They parameterize every later play/cache call
	// unless the call overrides the same key.
	DefaultAttrs map[string]string
}

// SoundContext coordinates playback sessions against one backend handle.
//
// Construction is two-phase: NewSoundContext allocates, Init performs the
// fallible backend connection. Init is also run implicitly by the first
// play/cache/change-attrs call, so most callers never invoke it directly.
// A SoundContext owns at most one backend handle; re-initialization while
// the handle exists is a no-op success, and Close releases the handle
// exactly once.
type SoundContext struct {
	backend  ports.Backend
	flags    ports.FeatureFlags
	logger   *slog.Logger
	defaults *domain.AttrList

	mu      sync.Mutex
	handle  ports.Handle
	pending map[uint32]*PendingPlay

	closed    chan struct{}
	closeOnce sync.Once
}

// NewSoundContext allocates a sound context. No backend call is made here;
// initialization happens in Init or lazily on first use.
func NewSoundContext(cfg SoundContextConfig) *SoundContext {
	if cfg.Backend == nil {
		panic("app: SoundContext requires a backend")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SoundContext{
		backend:  cfg.Backend,
		flags:    cfg.Flags,
		logger:   logger.With(slog.String("component", "app.SoundContext")),
		defaults: buildDefaultAttrs(cfg),
		pending:  make(map[uint32]*PendingPlay),
		closed:   make(chan struct{}),
	}
}

// buildDefaultAttrs assembles the context-level attribute set applied at
// initialization. Map entries are inserted in sorted key order so repeated
// runs produce the same backend state.
func buildDefaultAttrs(cfg SoundContextConfig) *domain.AttrList {
	attrs := domain.NewAttrList()

	if cfg.ApplicationName != "" {
		_ = attrs.Set(domain.AttrApplicationName, cfg.ApplicationName)
	}

	if cfg.ApplicationID != "" {
		_ = attrs.Set(domain.AttrApplicationID, cfg.ApplicationID)
	}

	keys := make([]string, 0, len(cfg.DefaultAttrs))
	for k := range cfg.DefaultAttrs {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		_ = attrs.Set(k, cfg.DefaultAttrs[k])
	}

	return attrs
}

// Init creates the backend handle and applies the context-level attributes.
// Calling Init when the handle already exists is a no-op success. When
// applying the attributes fails after the handle was created, the handle
// is destroyed and the error surfaced: a context never reports itself
// initialized with a half-configured handle.
func (c *SoundContext) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.initLocked(ctx)

	return err
}

// initLocked performs the actual initialization; callers hold c.mu.
func (c *SoundContext) initLocked(ctx context.Context) (ports.Handle, error) {
	if c.handle != nil {
		return c.handle, nil
	}

	if c.isClosed() {
		return nil, domain.NewSubmissionError("init", domain.CodeDestroyed)
	}

	handle, code := c.backend.CreateHandle()
	if !code.IsSuccess() {
		return nil, domain.NewSubmissionError("init", code)
	}

	if c.defaults.Len() > 0 {
		if code := handle.ApplyProperties(c.defaults); !code.IsSuccess() {
			handle.Destroy()

			return nil, domain.NewSubmissionError("init", code)
		}
	}

	c.handle = handle

	logging.FromContext(ctx).DebugContext(ctx, "sound context initialized",
		slog.Int("default_attrs", c.defaults.Len()),
	)

	return c.handle, nil
}

// acquireHandle returns the backend handle, initializing lazily.
func (c *SoundContext) acquireHandle(ctx context.Context) (ports.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.initLocked(ctx)
}

// Open connects the backend to its output device. Most callers rely on the
// implicit open performed by the backend on first play.
func (c *SoundContext) Open(ctx context.Context) error {
	handle, err := c.acquireHandle(ctx)
	if err != nil {
		return err
	}

	return domain.ErrorFromCode("open", handle.Open())
}

// SetDriver selects the backend output driver by name. Must be called
// before the device is opened.
func (c *SoundContext) SetDriver(ctx context.Context, name string) error {
	handle, err := c.acquireHandle(ctx)
	if err != nil {
		return err
	}

	return domain.ErrorFromCode("set driver", handle.SetDriver(name))
}

// ChangeAttrs merges the given name, value pairs into the context's
// persistent attribute set, used by all later play/cache calls unless a
// call overrides the same key.
func (c *SoundContext) ChangeAttrs(ctx context.Context, pairs ...string) error {
	attrs, err := domain.AttrListFromPairs(pairs...)
	if err != nil {
		return err
	}

	return c.changeAttrs(ctx, attrs)
}

// ChangeAttrsMap is the map form of ChangeAttrs.
func (c *SoundContext) ChangeAttrsMap(ctx context.Context, attrs map[string]string) error {
	list, err := domain.AttrListFromMap(attrs)
	if err != nil {
		return err
	}

	return c.changeAttrs(ctx, list)
}

func (c *SoundContext) changeAttrs(ctx context.Context, attrs *domain.AttrList) error {
	handle, err := c.acquireHandle(ctx)
	if err != nil {
		return err
	}

	return domain.ErrorFromCode("change attributes", handle.ApplyProperties(attrs))
}

// Play submits a fire-and-forget play request described by the given
// name, value pairs. It returns once the backend has accepted the request;
// the returned error reflects submission outcome, never the eventual
// playback outcome. Cancelling ctx after submission forwards a best-effort
// cancel to the backend.
func (c *SoundContext) Play(ctx context.Context, pairs ...string) error {
	attrs, err := domain.AttrListFromPairs(pairs...)
	if err != nil {
		return err
	}

	return c.playSimple(ctx, attrs)
}

// PlayMap is the map form of Play.
func (c *SoundContext) PlayMap(ctx context.Context, attrs map[string]string) error {
	list, err := domain.AttrListFromMap(attrs)
	if err != nil {
		return err
	}

	return c.playSimple(ctx, list)
}

func (c *SoundContext) playSimple(ctx context.Context, attrs *domain.AttrList) error {
	if err := c.checkEnabled(ctx); err != nil {
		return err
	}

	handle, err := c.acquireHandle(ctx)
	if err != nil {
		return err
	}

	token := c.newToken()
	code := handle.Play(token, attrs, nil)

	c.watchCancellation(ctx, token, nil)

	logging.FromContext(ctx).DebugContext(ctx, "play submitted",
		slog.Uint64("token", uint64(token)),
		slog.Int("code", int(code)),
	)

	return domain.ErrorFromCode("play", code)
}

// PlayAsync submits an awaitable play request described by the given
// name, value pairs and returns its pending task immediately. The task
// completes when the backend's completion callback fires, or right away
// when marshalling or submission fails; Finish always eventually returns.
func (c *SoundContext) PlayAsync(ctx context.Context, pairs ...string) *PendingPlay {
	task := c.newPending()

	attrs, err := domain.AttrListFromPairs(pairs...)
	if err != nil {
		c.finishPending(task, err)

		return task
	}

	c.playAsync(ctx, task, attrs)

	return task
}

// PlayAsyncMap is the map form of PlayAsync.
func (c *SoundContext) PlayAsyncMap(ctx context.Context, attrs map[string]string) *PendingPlay {
	task := c.newPending()

	list, err := domain.AttrListFromMap(attrs)
	if err != nil {
		c.finishPending(task, err)

		return task
	}

	c.playAsync(ctx, task, list)

	return task
}

func (c *SoundContext) playAsync(ctx context.Context, task *PendingPlay, attrs *domain.AttrList) {
	if err := c.checkEnabled(ctx); err != nil {
		c.finishPending(task, err)

		return
	}

	handle, err := c.acquireHandle(ctx)
	if err != nil {
		c.finishPending(task, err)

		return
	}

	// The callback runs on the backend's own goroutine and may fire
	// before Play returns; finishPending tolerates either order.
	code := handle.Play(task.token, attrs, func(token uint32, code domain.Code) {
		if code.IsSuccess() {
			c.finishPending(task, nil)

			return
		}

		c.finishPending(task, domain.NewPlaybackError(code, code.String()))
	})

	c.watchCancellation(ctx, task.token, task.done)

	if !code.IsSuccess() {
		// Submission failed: the completion callback will never come,
		// so the task must be completed here or Finish would hang.
		c.finishPending(task, domain.NewSubmissionError("play", code))
	}
}

// Finish blocks until the given task completes and returns its result.
// It fails with an invalid-argument error when the task was not produced
// by this context, and with ctx.Err() when the caller's context expires
// before the task completes.
func (c *SoundContext) Finish(ctx context.Context, task *PendingPlay) error {
	if task == nil || task.owner != c {
		return domain.NewInvalidArgumentError("task does not belong to this context")
	}

	select {
	case <-task.done:
		return task.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cache pre-registers the sound described by the given name, value pairs
// with the backend without playing it.
func (c *SoundContext) Cache(ctx context.Context, pairs ...string) error {
	attrs, err := domain.AttrListFromPairs(pairs...)
	if err != nil {
		return err
	}

	return c.cache(ctx, attrs)
}

// CacheMap is the map form of Cache.
func (c *SoundContext) CacheMap(ctx context.Context, attrs map[string]string) error {
	list, err := domain.AttrListFromMap(attrs)
	if err != nil {
		return err
	}

	return c.cache(ctx, list)
}

func (c *SoundContext) cache(ctx context.Context, attrs *domain.AttrList) error {
	handle, err := c.acquireHandle(ctx)
	if err != nil {
		return err
	}

	return domain.ErrorFromCode("cache", handle.Cache(attrs))
}

// Close releases the backend handle. Close is idempotent; only the first
// call destroys the handle. In-flight cancellation watchers are released.
func (c *SoundContext) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.handle != nil {
			c.handle.Destroy()
			c.handle = nil
		}
	})

	return nil
}

// checkEnabled consults the playback kill switch.
func (c *SoundContext) checkEnabled(ctx context.Context) error {
	if c.flags != nil && !c.flags.IsEnabled(ctx, FlagPlaybackEnabled, true) {
		return domain.NewSubmissionError("play", domain.CodeDisabled)
	}

	return nil
}

// newToken generates a request token unique among in-flight requests.
// Tokens are explicit per-request identifiers, never derived from caller
// object identity, and zero is reserved.
func (c *SoundContext) newToken() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.newTokenLocked()
}

func (c *SoundContext) newTokenLocked() uint32 {
	for {
		token := uuid.New().ID()
		if token == 0 {
			continue
		}

		if _, inFlight := c.pending[token]; !inFlight {
			return token
		}
	}
}

// newPending creates and registers a pending task with a fresh token.
// The coordinator owns the task until it completes.
func (c *SoundContext) newPending() *PendingPlay {
	c.mu.Lock()
	defer c.mu.Unlock()

	task := newPendingPlay(c, c.newTokenLocked())
	c.pending[task.token] = task

	return task
}

// finishPending completes a task and releases the coordinator's ownership.
func (c *SoundContext) finishPending(task *PendingPlay, err error) {
	task.complete(err)

	c.mu.Lock()
	delete(c.pending, task.token)
	c.mu.Unlock()
}

// watchCancellation forwards caller cancellation to a backend cancel call
// for the given token. The watcher exits when the request completes (done
// closed), the caller's context is cancelled, or the sound context closes.
// For fire-and-forget requests done is nil and the watcher lives until
// cancellation or context close.
func (c *SoundContext) watchCancellation(ctx context.Context, token uint32, done <-chan struct{}) {
	if ctx.Done() == nil {
		return
	}

	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			handle := c.handle
			c.mu.Unlock()

			if handle != nil {
				handle.Cancel(token)
			}
		case <-done:
		case <-c.closed:
		}
	}()
}

// isClosed reports whether Close has been called.
func (c *SoundContext) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
