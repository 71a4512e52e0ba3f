// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application
// layer to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Return domain types, never adapter-internal types
//   - Backend methods return the backend's own Code space; translation to
//     structured errors happens in the application layer
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"github.com/chimekit/chime/internal/domain"
)

// CompletionFunc is invoked by a backend exactly once per asynchronous play
// request, with the request token and the final result code. It runs on the
// backend's own goroutine, which may happen before the submitting Play call
// has returned; consumers must be robust to both orders.
type CompletionFunc func(token uint32, code domain.Code)

// Backend creates connections to a sound-event subsystem.
// The playback coordinator calls CreateHandle at most once per context.
type Backend interface {
	// CreateHandle allocates a new backend connection. On failure the
	// returned handle is nil and the code explains why.
	CreateHandle() (Handle, domain.Code)
}

// Handle is one live backend connection. It is exclusively owned by a
// single playback coordinator and never shared; the coordinator serializes
// every mutation through its own operations.
type Handle interface {
	// Open connects to the output device. Calling Open is optional;
	// backends open implicitly on the first play or cache request.
	Open() domain.Code

	// SetDriver selects the output driver by name. Must be called before
	// the handle is opened.
	SetDriver(name string) domain.Code

	// ApplyProperties merges the attribute set into the handle's
	// persistent properties, used as defaults for later requests.
	ApplyProperties(attrs *domain.AttrList) domain.Code

	// Play submits a play request identified by token. The returned code
	// reflects submission outcome only. When done is non-nil the backend
	// invokes it exactly once with the eventual playback outcome; when
	// nil the request is fire-and-forget.
	Play(token uint32, attrs *domain.AttrList, done CompletionFunc) domain.Code

	// Cache pre-registers the described sound with the backend so later
	// playback is low-latency. Cache never produces audible output.
	Cache(attrs *domain.AttrList) domain.Code

	// Cancel requests best-effort cancellation of the in-flight play
	// request with the given token. The backend decides the code the
	// completion callback eventually reports.
	Cancel(token uint32) domain.Code

	// Destroy releases the connection. Destroy is idempotent.
	Destroy()
}
