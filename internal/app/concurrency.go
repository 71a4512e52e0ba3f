package app

import (
	"context"
	"sync"
)

// PartialResult holds a result or an error for partial success patterns.
type PartialResult[T any] struct {
	Value T
	Err   error
}

// ParallelPartialLimit executes functions with bounded concurrency and
// collects every result, even on partial failure. At most limit functions
// run simultaneously; nothing is cancelled when one fails.
//
// The daemon uses this to pre-cache configured sounds at startup: one slow
// or missing sound file must not abort the rest of the warm-up.
func ParallelPartialLimit[T any](
	ctx context.Context,
	limit int,
	fns ...func(context.Context) (T, error),
) []PartialResult[T] {
	if limit < 1 {
		limit = 1
	}

	var (
		wg      sync.WaitGroup
		slots   = make(chan struct{}, limit)
		results = make([]PartialResult[T], len(fns))
	)

	for i, fn := range fns {
		slots <- struct{}{}

		wg.Go(func() {
			defer func() { <-slots }()

			value, err := fn(ctx)
			results[i] = PartialResult[T]{Value: value, Err: err}
		})
	}

	wg.Wait()

	return results
}
