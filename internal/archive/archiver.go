package archive

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// DefaultBuffer is the number of lines the Archiver holds while the store
// catches up.
const DefaultBuffer = 256

// writeTimeout bounds one store append.
const writeTimeout = 5 * time.Second

// Archiver is a presentation surface that records every appended line.
// The router never waits on the store: lines are buffered and written by
// Run, and dropped with a warning when the buffer is full.
type Archiver struct {
	store  Store
	lines  chan Entry
	logger *zap.Logger

	mu      sync.Mutex
	dropped int
}

// NewArchiver creates an Archiver over store.
//
// Precondition: store and logger must be non-nil; buffer <= 0 uses DefaultBuffer.
func NewArchiver(store Store, buffer int, logger *zap.Logger) *Archiver {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Archiver{store: store, lines: make(chan Entry, buffer), logger: logger}
}

// AppendLine queues l for archiving.
func (a *Archiver) AppendLine(l presentation.Line) {
	select {
	case a.lines <- FromLine(l):
	default:
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
		a.logger.Warn("archive buffer full, dropping line", zap.String("id", l.ID.String()))
	}
}

func (a *Archiver) RenderRoster([]roster.Line) {}
func (a *Archiver) EnableInput()                {}
func (a *Archiver) DisableInput()               {}

// Dropped returns how many lines were lost to a full buffer.
func (a *Archiver) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Run writes queued lines until ctx is done, then flushes what is left.
//
// Postcondition: Returns ctx.Err(). Store errors are logged, never returned.
func (a *Archiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.flush()
			return ctx.Err()
		case e := <-a.lines:
			a.write(context.WithoutCancel(ctx), e)
		}
	}
}

func (a *Archiver) flush() {
	for {
		select {
		case e := <-a.lines:
			a.write(context.Background(), e)
		default:
			return
		}
	}
}

func (a *Archiver) write(ctx context.Context, e Entry) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := a.store.Append(ctx, e); err != nil {
		a.logger.Error("archiving line failed", zap.String("id", e.ID.String()), zap.Error(err))
	}
}
