package wire

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/event"
)

// ErrNotConnected is returned by Send while no connection is open.
var ErrNotConnected = errors.New("not connected")

// NickServ notices the client reacts to.
const (
	nickServ           = "NickServ"
	nickRegisteredText = "This nickname is registered and protected."
	identifiedText     = "Password accepted -- you are now recognized."
)

// Hooks receive connection-level notifications. Nil hooks are skipped.
type Hooks struct {
	// OnMessage receives every parsed line except PING.
	OnMessage func(Message)
	// OnWelcome fires after registration completes.
	OnWelcome func()
	// OnReconnecting fires when an established connection drops.
	OnReconnecting func(reason string)
	// OnNickChanged fires when the client adopts a different nick.
	OnNickChanged func(nick string)
	// OnInformation surfaces progress of the nick recovery sequence.
	OnInformation func(text string)
	// OnIdentified fires when NickServ accepts the password.
	OnIdentified func()
}

// Options configures a Client.
type Options struct {
	Addr     string
	Nick     string
	Password string
	// ReconnectMax caps the reconnect backoff interval.
	ReconnectMax time.Duration
	// Pause separates the steps of the nick recovery sequence.
	Pause time.Duration
	Dial  func(ctx context.Context, addr string) (net.Conn, error)
}

// Client maintains one connection to the chat network.
type Client struct {
	opts   Options
	hooks  Hooks
	logger *zap.Logger

	nick atomic.Value

	mu   sync.Mutex
	conn net.Conn
}

// NewClient creates a Client.
//
// Precondition: opts.Addr and opts.Nick must be non-empty; logger must be non-nil.
func NewClient(opts Options, hooks Hooks, logger *zap.Logger) *Client {
	if opts.Dial == nil {
		var d net.Dialer
		opts.Dial = func(ctx context.Context, addr string) (net.Conn, error) {
			return d.DialContext(ctx, "tcp", addr)
		}
	}
	if opts.ReconnectMax <= 0 {
		opts.ReconnectMax = 2 * time.Minute
	}
	c := &Client{opts: opts, hooks: hooks, logger: logger}
	c.nick.Store(opts.Nick)
	return c
}

// Nick returns the nick currently in use.
func (c *Client) Nick() string {
	return c.nick.Load().(string)
}

// SetNick records a nick change requested by the user.
func (c *Client) SetNick(nick string) {
	c.nick.Store(nick)
}

// Run connects and serves until ctx is cancelled, reconnecting with
// exponential backoff whenever the connection drops.
//
// Postcondition: Returns ctx.Err() on cancellation.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := c.connect(ctx)
		if err != nil {
			return err
		}
		err = c.serve(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		reason := "Connection lost"
		if err != nil {
			c.logger.Warn("connection lost", zap.Error(err))
		}
		if c.hooks.OnReconnecting != nil {
			c.hooks.OnReconnecting(reason)
		}
	}
}

func (c *Client) connect(ctx context.Context) (net.Conn, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = c.opts.ReconnectMax
	b.MaxElapsedTime = 0

	var conn net.Conn
	op := func() error {
		var err error
		conn, err = c.opts.Dial(ctx, c.opts.Addr)
		return err
	}
	notify := func(err error, next time.Duration) {
		c.logger.Warn("dial failed, retrying", zap.String("addr", c.opts.Addr), zap.Duration("in", next), zap.Error(err))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.opts.Addr, err)
	}
	c.logger.Info("connected", zap.String("addr", c.opts.Addr))
	return conn, nil
}

func (c *Client) serve(ctx context.Context, conn net.Conn) error {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := c.register(c.Nick()); err != nil {
		return err
	}

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	for sc.Scan() {
		m, err := Parse(sc.Text())
		if err != nil {
			c.logger.Warn("dropping line", zap.Error(err))
			continue
		}
		c.handle(ctx, m)
	}
	return sc.Err()
}

func (c *Client) register(nick string) error {
	for _, m := range registration(nick) {
		if err := c.writeMessage(m); err != nil {
			return err
		}
	}
	return nil
}

func registration(nick string) []Message {
	return []Message{
		{Command: "NICK", Params: []string{nick}},
		{Command: "USER", Params: []string{nick, "0", "*", nick}},
	}
}

func nickServMessage(words ...string) Message {
	return Message{Command: "PRIVMSG", Params: []string{nickServ, strings.Join(words, " ")}}
}

func (c *Client) handle(ctx context.Context, m Message) {
	switch m.Command {
	case "PING":
		token, _ := m.Param(0)
		if err := c.writeMessage(Message{Command: "PONG", Params: []string{token}}); err != nil {
			c.logger.Warn("pong failed", zap.Error(err))
		}
		return
	case "001":
		if c.hooks.OnWelcome != nil {
			c.hooks.OnWelcome()
		}
	case "433":
		go c.recoverNick(ctx)
	case "NICK":
		if m.Source() == c.Nick() {
			if n, ok := m.Param(0); ok {
				c.nick.Store(n)
			}
		}
	case "NOTICE":
		c.handleNickServ(m)
	}
	if c.hooks.OnMessage != nil {
		c.hooks.OnMessage(m)
	}
}

func (c *Client) handleNickServ(m Message) {
	target, _ := m.Param(0)
	text, _ := m.Param(1)
	if m.Source() != nickServ || target != c.Nick() {
		return
	}
	switch {
	case strings.HasPrefix(text, nickRegisteredText):
		c.identify()
	case text == identifiedText:
		c.logger.Info("identified")
		if c.hooks.OnIdentified != nil {
			c.hooks.OnIdentified()
		}
	}
}

func (c *Client) identify() {
	if c.opts.Password == "" {
		c.logger.Error("nick is registered but no password is configured")
		return
	}
	c.logger.Info("identifying")
	if err := c.writeMessage(nickServMessage("IDENTIFY", c.opts.Password)); err != nil {
		c.logger.Warn("identify failed", zap.Error(err))
	}
}

// recoverNick runs when the configured nick is taken. Without a password
// the temporary nick is adopted; otherwise NickServ is asked to free the
// configured one.
func (c *Client) recoverNick(ctx context.Context) {
	nick := c.opts.Nick
	temp := nick + "_"
	c.logger.Warn("nick already in use", zap.String("nick", nick))

	steps := registration(temp)
	if !c.runSteps(ctx, steps) {
		return
	}
	if c.opts.Password == "" {
		c.nick.Store(temp)
		if c.hooks.OnNickChanged != nil {
			c.hooks.OnNickChanged(temp)
		}
		return
	}

	if c.hooks.OnInformation != nil {
		c.hooks.OnInformation(fmt.Sprintf("Nick %s is already in use. Trying to recover it.", nick))
	}
	steps = []Message{
		nickServMessage("RECOVER", nick, c.opts.Password),
		nickServMessage("RELEASE", nick, c.opts.Password),
	}
	steps = append(steps, registration(nick)...)
	steps = append(steps, nickServMessage("IDENTIFY", c.opts.Password))
	if c.runSteps(ctx, steps) {
		c.nick.Store(nick)
	}
}

func (c *Client) runSteps(ctx context.Context, steps []Message) bool {
	for i, m := range steps {
		if i > 0 && !c.pause(ctx) {
			return false
		}
		if err := c.writeMessage(m); err != nil {
			c.logger.Warn("nick recovery step failed", zap.Error(err))
			return false
		}
	}
	return c.pause(ctx)
}

func (c *Client) pause(ctx context.Context) bool {
	if c.opts.Pause <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.opts.Pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Send writes one outbound action.
//
// Postcondition: Returns ErrNotConnected when no connection is open.
func (c *Client) Send(_ context.Context, a event.Action) error {
	m, err := Format(a)
	if err != nil {
		return err
	}
	if nc, ok := a.(event.NickChange); ok {
		c.nick.Store(nc.Nick)
	}
	return c.writeMessage(m)
}

func (c *Client) writeMessage(m Message) error {
	line, err := m.Encode()
	if err != nil {
		return err
	}
	return c.writeLine(line)
}

// Format maps an action to its protocol message.
func Format(a event.Action) (Message, error) {
	switch a := a.(type) {
	case event.ChannelMessage:
		return Message{Command: "PRIVMSG", Params: []string{a.Target, a.Content}}, nil
	case event.DirectMessage:
		return Message{Command: "PRIVMSG", Params: []string{a.Target, a.Content}}, nil
	case event.Notice:
		return Message{Command: "NOTICE", Params: []string{a.Target, a.Content}}, nil
	case event.NickChange:
		return Message{Command: "NICK", Params: []string{a.Nick}}, nil
	case event.Join:
		return Message{Command: "JOIN", Params: []string{a.Channel}}, nil
	case event.Part:
		if a.Reason == "" {
			return Message{Command: "PART", Params: []string{a.Channel}}, nil
		}
		return Message{Command: "PART", Params: []string{a.Channel, a.Reason}}, nil
	default:
		return Message{}, fmt.Errorf("unsupported action %T", a)
	}
}

func (c *Client) writeLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	command, _, _ := strings.Cut(line, " ")
	c.logger.Debug("send", zap.String("command", command))
	_, err := c.conn.Write([]byte(line + "\r\n"))
	return err
}
