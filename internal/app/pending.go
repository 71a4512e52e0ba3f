package app

import (
	"sync"
)

// PendingPlay is the caller-visible handle for one in-flight asynchronous
// play request. It is created by PlayAsync/PlayAsyncMap and consumed
// through SoundContext.Finish. Completion happens exactly once, whether it
// comes from the backend callback, a submission failure, or a marshalling
// failure.
type PendingPlay struct {
	owner *SoundContext
	token uint32

	once sync.Once
	done chan struct{}
	err  error
}

// newPendingPlay creates a pending task owned by ctx with the given token.
func newPendingPlay(owner *SoundContext, token uint32) *PendingPlay {
	return &PendingPlay{
		owner: owner,
		token: token,
		done:  make(chan struct{}),
	}
}

// complete records the final result and releases waiters. Only the first
// call has any effect; the backend callback and the submission-failure path
// may race and either order is safe.
func (p *PendingPlay) complete(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Token returns the request token correlating this task with backend
// cancel calls.
func (p *PendingPlay) Token() uint32 {
	return p.token
}

// Done returns a channel that is closed when the task has completed.
// Use SoundContext.Finish to retrieve the result.
func (p *PendingPlay) Done() <-chan struct{} {
	return p.done
}
