package tui

import (
	"context"
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// Surface drives a Model from the router's goroutine by sending it
// messages through the running program.
type Surface struct {
	program *tea.Program
}

// New creates a terminal surface. Options are passed to the program, which
// lets tests supply their own input and output.
func New(title string, sink presentation.Sink, opts ...tea.ProgramOption) *Surface {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &Surface{program: tea.NewProgram(NewModel(title, sink), opts...)}
}

// Start runs the program until it quits or ctx is done.
func (s *Surface) Start(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.program.Quit()
		case <-done:
		}
	}()
	if _, err := s.program.Run(); err != nil {
		return fmt.Errorf("running terminal ui: %w", err)
	}
	return nil
}

// Stop quits the program.
func (s *Surface) Stop() { s.program.Quit() }

func (s *Surface) RenderRoster(lines []roster.Line) {
	s.program.Send(rosterMsg(slices.Clone(lines)))
}

func (s *Surface) AppendLine(l presentation.Line) { s.program.Send(lineMsg(l)) }
func (s *Surface) EnableInput()                   { s.program.Send(inputMsg(true)) }
func (s *Surface) DisableInput()                  { s.program.Send(inputMsg(false)) }
