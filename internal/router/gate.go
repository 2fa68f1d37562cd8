package router

import (
	"context"
	"sync"
)

// Gate is the joined-channel condition. Content messages wait on it so
// they are never interpreted before the roster for the channel exists.
type Gate struct {
	mu sync.Mutex
	ch chan struct{}
	on bool
}

// NewGate creates a cleared Gate.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Set opens the gate and releases every waiter.
func (g *Gate) Set() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.on {
		return
	}
	g.on = true
	close(g.ch)
}

// Clear closes the gate.
func (g *Gate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.on {
		return
	}
	g.on = false
	g.ch = make(chan struct{})
}

// IsSet reports whether the gate is open.
func (g *Gate) IsSet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on
}

// Wait blocks until the gate is open or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
