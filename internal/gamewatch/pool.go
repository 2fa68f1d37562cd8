package gamewatch

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool runs blocking calls off the caller's goroutine, one at a time.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a Pool with a single worker.
func NewPool() *Pool {
	return &Pool{sem: semaphore.NewWeighted(1)}
}

// Do runs fn on the pool and waits for it.
//
// Postcondition: Returns ctx.Err() if ctx ends first; fn still runs to
// completion in the background and its result is discarded.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		defer p.sem.Release(1)
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
