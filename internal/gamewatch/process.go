package gamewatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrNotFound is returned when no process matches.
var ErrNotFound = errors.New("game process not found")

// Finder locates the game process.
type Finder interface {
	// Find returns the pid and executable path of the first process whose
	// name contains name.
	Find(ctx context.Context, name string) (pid int32, exe string, err error)
	// Alive reports whether pid still exists.
	Alive(ctx context.Context, pid int32) (bool, error)
}

// SystemFinder scans the OS process table.
type SystemFinder struct{}

// Find implements Finder.
func (SystemFinder) Find(ctx context.Context, name string) (int32, string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("listing processes: %w", err)
	}
	for _, p := range procs {
		pname, err := p.NameWithContext(ctx)
		if err != nil || !strings.Contains(pname, name) {
			// Processes vanish between listing and inspection.
			continue
		}
		exe, err := p.ExeWithContext(ctx)
		if err != nil {
			return 0, "", fmt.Errorf("reading executable of pid %d: %w", p.Pid, err)
		}
		return p.Pid, exe, nil
	}
	return 0, "", ErrNotFound
}

// Alive implements Finder.
func (SystemFinder) Alive(ctx context.Context, pid int32) (bool, error) {
	return process.PidExistsWithContext(ctx, pid)
}
