package bridge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Writer appends encoded records to the game's input file.
// Writer is safe for concurrent use; writes are serialized so that only
// one append is outstanding at a time.
type Writer struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

// NewWriter creates a Writer with no known game location.
//
// Precondition: logger must be non-nil.
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// SetLocation sets the game install root. An empty location disables writes.
func (w *Writer) SetLocation(location string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if location == "" {
		w.dir = ""
		return
	}
	w.dir = ConfigsDir(location)
}

// Write encodes r and appends it as one line.
//
// Postcondition: Returns nil without writing when the game location is
// unknown or r is an empty Users snapshot.
func (w *Writer) Write(r Record) error {
	line, err := Encode(r)
	if errors.Is(err, ErrEmptyUsers) {
		w.logger.Warn("skipping empty users snapshot")
		return nil
	}
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dir == "" {
		w.logger.Debug("game location unknown, dropping record", zap.String("record", r.Tag()))
		return nil
	}

	path := filepath.Join(w.dir, InputFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	w.logger.Debug("wrote bridge record", zap.String("line", line))
	return nil
}
