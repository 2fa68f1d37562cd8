// Package archive keeps a transcript of every line shown on the surface.
// Stores live in internal/storage; this package owns the entry model, the
// schema migrations and the Archiver surface that feeds a store.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/pdabridge/internal/presentation"
)

// ErrClosed is returned by a store used after Close.
var ErrClosed = errors.New("archive closed")

// Entry is one archived line.
type Entry struct {
	ID        uuid.UUID
	At        time.Time
	Style     string
	Author    string
	Faction   string
	Receiver  string
	Text      string
	Highlight bool
}

// FromLine converts a presentation line.
func FromLine(l presentation.Line) Entry {
	return Entry{
		ID:        l.ID,
		At:        l.At.UTC(),
		Style:     string(l.Style),
		Author:    l.Author,
		Faction:   string(l.Faction),
		Receiver:  l.Receiver,
		Text:      l.Text,
		Highlight: l.Highlight,
	}
}

// Store persists entries.
type Store interface {
	// Append stores e. Appending an ID twice is a no-op.
	Append(ctx context.Context, e Entry) error
	// Recent returns up to limit entries, oldest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	// ByAuthor returns up to limit entries written by author, oldest first.
	ByAuthor(ctx context.Context, author string, limit int) ([]Entry, error)
	Close() error
}
