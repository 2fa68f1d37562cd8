package bridge

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handler receives each decoded inbound record in file order.
type Handler func(Record)

// Watcher drains the game's output file whenever it changes.
type Watcher struct {
	handler Handler
	logger  *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	path    string
	done    chan struct{}
	stopped chan struct{}
}

// NewWatcher creates a stopped Watcher.
//
// Precondition: handler and logger must be non-nil.
func NewWatcher(handler Handler, logger *zap.Logger) *Watcher {
	return &Watcher{handler: handler, logger: logger}
}

// Start watches the configs directory under location. A running watch is
// replaced.
//
// Postcondition: Lines already present in the output file are drained
// before Start returns.
func (w *Watcher) Start(location string) error {
	w.Stop()

	dir := ConfigsDir(location)
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	w.mu.Lock()
	w.fsw = fsw
	w.path = filepath.Join(dir, OutputFile)
	w.done = make(chan struct{})
	w.stopped = make(chan struct{})
	path, done, stopped := w.path, w.done, w.stopped
	w.mu.Unlock()

	w.drain(path)
	go w.loop(fsw, path, done, stopped)
	w.logger.Info("watching game output", zap.String("path", path))
	return nil
}

// Stop ends the watch. It is a no-op when not running.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fsw, done, stopped := w.fsw, w.done, w.stopped
	w.fsw, w.done, w.stopped = nil, nil, nil
	w.mu.Unlock()

	if fsw == nil {
		return
	}
	close(done)
	fsw.Close()
	<-stopped
}

// Running reports whether a watch is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsw != nil
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, path string, done, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case <-done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.drain(path)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))
		}
	}
}

// maxLoggedLine bounds how much of a rejected line reaches the log.
const maxLoggedLine = 256

// drain reads every line of the output file, truncates it, then decodes.
// Lines are consumed before decoding so a bad line is never retried. Lines
// have no length limit; a rejected line is logged and the rest of the batch
// still decodes.
func (w *Watcher) drain(path string) {
	data, err := readAndTruncate(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Error("reading game output", zap.Error(err))
		}
		return
	}

	for raw := range strings.SplitSeq(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		rec, err := DecodeInbound(line)
		if errors.Is(err, ErrUnknownRecord) {
			w.logger.Warn("unknown bridge record", zap.String("line", clip(line)), zap.Int("length", len(line)))
			continue
		}
		if err != nil {
			w.logger.Error("malformed bridge record", zap.String("line", clip(line)), zap.Int("length", len(line)), zap.Error(err))
			continue
		}
		w.handler(rec)
	}
}

func clip(line string) string {
	if len(line) <= maxLoggedLine {
		return line
	}
	return line[:maxLoggedLine] + "..."
}

func readAndTruncate(path string) ([]byte, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if buf.Len() == 0 {
		return nil, nil
	}
	if err := f.Truncate(0); err != nil {
		return nil, fmt.Errorf("truncating %s: %w", path, err)
	}
	return buf.Bytes(), nil
}
