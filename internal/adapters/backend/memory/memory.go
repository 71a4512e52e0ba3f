// Package memory provides an in-process sound backend. It produces no
// audio: every call is recorded and answered with configurable codes.
// The daemon uses it as the "null" driver, and unit tests use it to
// observe exactly which backend calls an operation makes.
package memory

import (
	"sync"

	"github.com/chimekit/chime/internal/domain"
	"github.com/chimekit/chime/internal/ports"
)

// HandleOptions configures the behavior of handles created by the backend.
// The zero value answers every call with success and leaves completion
// callbacks pending until Complete is called.
type HandleOptions struct {
	// AutoComplete fires each play completion callback from a separate
	// goroutine shortly after submission, simulating a backend event loop.
	AutoComplete bool

	// SyncComplete fires each play completion callback inline, before
	// Play returns. Used to exercise callers against backends that
	// complete synchronously.
	SyncComplete bool

	// CompleteCode is the code delivered by auto or sync completion.
	CompleteCode domain.Code

	// Per-operation submission codes. Zero values mean success.
	CreateCode domain.Code
	OpenCode   domain.Code
	DriverCode domain.Code
	ApplyCode  domain.Code
	PlayCode   domain.Code
	CacheCode  domain.Code
	CancelCode domain.Code
}

// Backend is an in-process ports.Backend.
type Backend struct {
	opts HandleOptions

	mu      sync.Mutex
	handles []*Handle
}

// New creates a memory backend whose handles behave per opts.
func New(opts HandleOptions) *Backend {
	return &Backend{opts: opts}
}

// CreateHandle implements ports.Backend.
func (b *Backend) CreateHandle() (ports.Handle, domain.Code) {
	if !b.opts.CreateCode.IsSuccess() {
		return nil, b.opts.CreateCode
	}

	h := &Handle{
		opts:        b.opts,
		completions: make(map[uint32]ports.CompletionFunc),
	}

	b.mu.Lock()
	b.handles = append(b.handles, h)
	b.mu.Unlock()

	return h, domain.CodeSuccess
}

// Handles returns every handle created so far.
func (b *Backend) Handles() []*Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*Handle, len(b.handles))
	copy(out, b.handles)

	return out
}

// PlayCall records one play submission.
type PlayCall struct {
	Token       uint32
	Attrs       []domain.Attr
	HasCallback bool
}

// Handle is an in-process ports.Handle recording every call.
type Handle struct {
	opts HandleOptions

	mu          sync.Mutex
	opened      bool
	driver      string
	props       []domain.Attr
	plays       []PlayCall
	caches      [][]domain.Attr
	cancels     []uint32
	destroys    int
	completions map[uint32]ports.CompletionFunc
}

// Open implements ports.Handle.
func (h *Handle) Open() domain.Code {
	if !h.opts.OpenCode.IsSuccess() {
		return h.opts.OpenCode
	}

	h.mu.Lock()
	h.opened = true
	h.mu.Unlock()

	return domain.CodeSuccess
}

// SetDriver implements ports.Handle.
func (h *Handle) SetDriver(name string) domain.Code {
	if !h.opts.DriverCode.IsSuccess() {
		return h.opts.DriverCode
	}

	h.mu.Lock()
	h.driver = name
	h.mu.Unlock()

	return domain.CodeSuccess
}

// ApplyProperties implements ports.Handle.
func (h *Handle) ApplyProperties(attrs *domain.AttrList) domain.Code {
	if !h.opts.ApplyCode.IsSuccess() {
		return h.opts.ApplyCode
	}

	h.mu.Lock()
	h.props = append(h.props, attrs.Attrs()...)
	h.mu.Unlock()

	return domain.CodeSuccess
}

// Play implements ports.Handle.
func (h *Handle) Play(token uint32, attrs *domain.AttrList, done ports.CompletionFunc) domain.Code {
	if !h.opts.PlayCode.IsSuccess() {
		return h.opts.PlayCode
	}

	h.mu.Lock()
	h.plays = append(h.plays, PlayCall{
		Token:       token,
		Attrs:       attrs.Attrs(),
		HasCallback: done != nil,
	})

	if done != nil {
		h.completions[token] = done
	}
	h.mu.Unlock()

	if done == nil {
		return domain.CodeSuccess
	}

	switch {
	case h.opts.SyncComplete:
		h.Complete(token, h.opts.CompleteCode)
	case h.opts.AutoComplete:
		go h.Complete(token, h.opts.CompleteCode)
	}

	return domain.CodeSuccess
}

// Cache implements ports.Handle.
func (h *Handle) Cache(attrs *domain.AttrList) domain.Code {
	if !h.opts.CacheCode.IsSuccess() {
		return h.opts.CacheCode
	}

	h.mu.Lock()
	h.caches = append(h.caches, attrs.Attrs())
	h.mu.Unlock()

	return domain.CodeSuccess
}

// Cancel implements ports.Handle. A pending completion callback for the
// token, if any, is fired with the canceled code, matching backends that
// report cancellation through the normal completion path.
func (h *Handle) Cancel(token uint32) domain.Code {
	if !h.opts.CancelCode.IsSuccess() {
		return h.opts.CancelCode
	}

	h.mu.Lock()
	h.cancels = append(h.cancels, token)
	h.mu.Unlock()

	h.Complete(token, domain.CodeCanceled)

	return domain.CodeSuccess
}

// Destroy implements ports.Handle.
func (h *Handle) Destroy() {
	h.mu.Lock()
	h.destroys++
	h.mu.Unlock()
}

// Complete fires the stored completion callback for token, at most once.
// Returns false if no callback is pending for the token.
func (h *Handle) Complete(token uint32, code domain.Code) bool {
	h.mu.Lock()
	done, ok := h.completions[token]

	if ok {
		delete(h.completions, token)
	}
	h.mu.Unlock()

	if !ok {
		return false
	}

	done(token, code)

	return true
}

// Plays returns every recorded play submission.
func (h *Handle) Plays() []PlayCall {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]PlayCall, len(h.plays))
	copy(out, h.plays)

	return out
}

// Caches returns the attribute sets of every recorded cache call.
func (h *Handle) Caches() [][]domain.Attr {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([][]domain.Attr, len(h.caches))
	copy(out, h.caches)

	return out
}

// Cancels returns every cancelled token in call order.
func (h *Handle) Cancels() []uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]uint32, len(h.cancels))
	copy(out, h.cancels)

	return out
}

// Props returns every property pair applied to the handle, in order.
func (h *Handle) Props() []domain.Attr {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.Attr, len(h.props))
	copy(out, h.props)

	return out
}

// Driver returns the driver name last set on the handle.
func (h *Handle) Driver() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.driver
}

// Destroys returns how many times Destroy was called.
func (h *Handle) Destroys() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.destroys
}
