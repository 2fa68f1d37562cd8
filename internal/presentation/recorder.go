package presentation

import (
	"sync"

	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// Recorder is a Surface that keeps everything it is given. It backs tests
// and lets late joiners such as console sessions replay recent history.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	lines   []Line
	roster  []roster.Line
	renders int
	input   bool
}

// NewRecorder keeps at most limit lines; limit <= 0 keeps all.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) RenderRoster(lines []roster.Line) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roster = append([]roster.Line(nil), lines...)
	r.renders++
}

func (r *Recorder) AppendLine(l Line) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, l)
	if r.limit > 0 && len(r.lines) > r.limit {
		r.lines = append([]Line(nil), r.lines[len(r.lines)-r.limit:]...)
	}
}

func (r *Recorder) EnableInput() {
	r.mu.Lock()
	r.input = true
	r.mu.Unlock()
}

func (r *Recorder) DisableInput() {
	r.mu.Lock()
	r.input = false
	r.mu.Unlock()
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines...)
}

// Texts returns the text of every recorded line.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	for i, l := range r.lines {
		out[i] = l.Text
	}
	return out
}

// Roster returns the last rendered participant list.
func (r *Recorder) Roster() []roster.Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]roster.Line(nil), r.roster...)
}

// Renders counts RenderRoster calls.
func (r *Recorder) Renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders
}

// InputEnabled reports the last input toggle.
func (r *Recorder) InputEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.input
}
