// Package console is the remote text surface: password-protected Telnet
// sessions that mirror the message list and feed typed lines back into the
// router.
package console

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

const (
	// MaxAttempts is how many passwords a client may try per connection.
	MaxAttempts = 3
	// HistorySize is how many recent lines a new session is shown.
	HistorySize = 50

	sessionBuffer = 128
)

// ErrAuthFailed is returned when a client exhausts its password attempts.
var ErrAuthFailed = errors.New("console authentication failed")

type session struct {
	conn *Conn
	out  chan string
}

// Console is both a presentation surface and the acceptor's session handler.
type Console struct {
	hash   string
	sink   presentation.Sink
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[*session]struct{}
	history  []string
	roster   []roster.Line
	input    bool
}

// New creates a Console that accepts clients knowing the password behind
// hash and pushes their input into sink.
//
// Precondition: hash must be a bcrypt hash; sink and logger must be non-nil.
func New(hash string, sink presentation.Sink, logger *zap.Logger) *Console {
	return &Console{hash: hash, sink: sink, logger: logger, sessions: make(map[*session]struct{})}
}

// Sessions returns the number of authenticated sessions.
func (c *Console) Sessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// HandleSession authenticates the client, replays recent history, then
// relays lines both ways until the client quits or ctx is done.
func (c *Console) HandleSession(ctx context.Context, conn *Conn) error {
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	if err := c.login(conn); err != nil {
		return err
	}
	_ = conn.WriteLine("Connected. /who lists participants, /quit disconnects, anything else goes to the router.")
	s := c.attach(conn)
	defer c.detach(s)

	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/quit":
			_ = conn.WriteLine("bye")
			return nil
		case "/who":
			c.who(s)
			continue
		}
		if !c.inputEnabled() {
			s.send(colorize(red, "Input is disabled until the channel is joined."))
			continue
		}
		presentation.Submit(c.sink, line)
	}
}

func (c *Console) login(conn *Conn) error {
	for range MaxAttempts {
		if err := conn.WritePrompt("Password: "); err != nil {
			return err
		}
		pw, err := conn.ReadPassword()
		if err != nil {
			return err
		}
		if CheckPassword(c.hash, pw) {
			return nil
		}
		c.logger.Warn("console login rejected", zap.Stringer("remote_addr", conn.RemoteAddr()))
		_ = conn.WriteLine("Access denied.")
	}
	return ErrAuthFailed
}

func (c *Console) attach(conn *Conn) *session {
	s := &session{conn: conn, out: make(chan string, sessionBuffer+HistorySize)}
	c.mu.Lock()
	for _, h := range c.history {
		s.out <- h
	}
	c.sessions[s] = struct{}{}
	c.mu.Unlock()
	go func() {
		for text := range s.out {
			if err := conn.WriteLine(text); err != nil {
				return
			}
		}
	}()
	return s
}

func (c *Console) detach(s *session) {
	c.mu.Lock()
	delete(c.sessions, s)
	close(s.out)
	c.mu.Unlock()
}

// send queues text for the session; a session too slow to keep up loses
// lines rather than stalling the router.
func (s *session) send(text string) {
	select {
	case s.out <- text:
	default:
	}
}

func (c *Console) who(s *session) {
	c.mu.Lock()
	rows := slices.Clone(c.roster)
	c.mu.Unlock()
	if len(rows) == 0 {
		s.send("Nobody is here.")
		return
	}
	for _, r := range rows {
		if r.Header {
			s.send(colorize(bold, r.Label))
			continue
		}
		s.send(colorize(factionColors[r.Participant.Faction], r.Label))
	}
}

func (c *Console) inputEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

func (c *Console) AppendLine(l presentation.Line) {
	text := FormatLine(l)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, text)
	if over := len(c.history) - HistorySize; over > 0 {
		c.history = c.history[over:]
	}
	for s := range c.sessions {
		s.send(text)
	}
}

func (c *Console) RenderRoster(lines []roster.Line) {
	c.mu.Lock()
	c.roster = slices.Clone(lines)
	c.mu.Unlock()
}

func (c *Console) EnableInput() {
	c.mu.Lock()
	c.input = true
	c.mu.Unlock()
}

func (c *Console) DisableInput() {
	c.mu.Lock()
	c.input = false
	c.mu.Unlock()
}
