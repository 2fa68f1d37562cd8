// Package gamewatch finds the running game, reports it to the router and
// keeps the bridge watcher pointed at its install directory.
package gamewatch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/bridge"
	"github.com/cory-johannsen/pdabridge/internal/event"
)

// Sink receives detector events.
type Sink interface {
	Push(e event.Event)
}

// FileWatcher follows the game's output file.
type FileWatcher interface {
	Start(location string) error
	Stop()
}

// Detector polls for the game process. Scans and watcher setup run on the
// shared Pool; results only reach the router through the Sink.
type Detector struct {
	finder   Finder
	name     string
	interval time.Duration
	pool     *Pool
	sink     Sink
	watcher  FileWatcher
	logger   *zap.Logger

	pid     int32
	running bool
}

// NewDetector creates a Detector.
//
// Precondition: every argument must be non-nil and interval > 0.
func NewDetector(finder Finder, name string, interval time.Duration, pool *Pool, sink Sink, watcher FileWatcher, logger *zap.Logger) *Detector {
	return &Detector{
		finder:   finder,
		name:     name,
		interval: interval,
		pool:     pool,
		sink:     sink,
		watcher:  watcher,
		logger:   logger,
	}
}

// Run scans every interval until ctx is done.
//
// Postcondition: The watcher is stopped and ctx.Err() is returned.
func (d *Detector) Run(ctx context.Context) error {
	d.logger.Debug("looking for game process", zap.String("name", d.name))
	defer d.watcher.Stop()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := d.Scan(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Scan runs one detection step.
func (d *Detector) Scan(ctx context.Context) error {
	running, location, err := d.probe(ctx)
	if err != nil {
		d.logger.Warn("game scan failed", zap.Error(err))
		return err
	}
	if running == d.running {
		return nil
	}
	d.running = running
	d.sink.Push(event.NewInGame(running, location))
	if !running {
		d.watcher.Stop()
		return nil
	}
	return d.pool.Do(ctx, func() error {
		if err := d.watcher.Start(location); err != nil {
			d.logger.Error("watching game files failed", zap.String("location", location), zap.Error(err))
			d.sink.Push(event.NewError("Cannot read game files, check the game installation."))
		}
		return nil
	})
}

// probe checks the known pid, or searches for a new one.
func (d *Detector) probe(ctx context.Context) (running bool, location string, err error) {
	if d.pid != 0 {
		var alive bool
		err = d.pool.Do(ctx, func() error {
			var err error
			alive, err = d.finder.Alive(ctx, d.pid)
			return err
		})
		if err != nil {
			return d.running, "", err
		}
		if alive {
			return true, "", nil
		}
		d.logger.Info("game process is not running anymore", zap.Int32("pid", d.pid))
		d.sink.Push(event.NewInformation("Lost game process. Unbinding game and chat."))
		d.pid = 0
		return false, "", nil
	}

	var pid int32
	var exe string
	err = d.pool.Do(ctx, func() error {
		var err error
		pid, exe, err = d.finder.Find(ctx, d.name)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return false, "", nil
	}
	if err != nil {
		return d.running, "", err
	}
	d.pid = pid
	location = bridge.GameLocation(exe)
	d.logger.Info("found game process", zap.Int32("pid", pid), zap.String("location", location))
	d.sink.Push(event.NewInformation("Found game process, binding game and chat."))
	return true, location, nil
}
