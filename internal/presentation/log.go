package presentation

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// Log is the headless surface: every line becomes a structured log entry.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a Log surface.
//
// Precondition: logger must be non-nil.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (s *Log) RenderRoster(lines []roster.Line) {
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Header {
			continue
		}
		names = append(names, l.Participant.Name)
	}
	s.logger.Debug("participants", zap.Strings("names", names))
}

func (s *Log) AppendLine(l Line) {
	fields := []zap.Field{
		zap.String("style", string(l.Style)),
		zap.Time("at", l.At),
	}
	if l.Author != "" {
		fields = append(fields, zap.String("author", l.Author), zap.String("faction", l.Faction.Name()))
	}
	if l.Receiver != "" {
		fields = append(fields, zap.String("receiver", l.Receiver))
	}
	if l.Highlight {
		fields = append(fields, zap.Bool("highlight", true))
	}
	fields = append(fields, zap.String("text", l.Text))
	if l.Style == StyleError {
		s.logger.Warn("line", fields...)
		return
	}
	s.logger.Info("line", fields...)
}

func (s *Log) EnableInput()  { s.logger.Debug("input enabled") }
func (s *Log) DisableInput() { s.logger.Debug("input disabled") }
