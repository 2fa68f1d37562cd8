// Package router owns the two ordered queues between the chat network, the
// game bridge and the presentation surface, and every use case that reacts
// to what flows through them.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/bridge"
	"github.com/cory-johannsen/pdabridge/internal/command"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/narrative"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/rank"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// DefaultTick is the inbound loop period.
const DefaultTick = 250 * time.Millisecond

// FatalText is shown before the inbound loop stops on a handler error.
const FatalText = "Error occurred, please provide error logs to creator."

// ErrUnknownEvent is returned for an event type the router does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// GameWriter appends records to the game's input file.
type GameWriter interface {
	Write(r bridge.Record) error
	SetLocation(location string)
}

// Narrator produces death narration lines.
type Narrator interface {
	Generate(dc narrative.DeathContext) (string, error)
}

// Highlighter decides whether a channel line is highlighted. ok is false
// when the default rule should apply.
type Highlighter interface {
	Highlight(author, target, content string) (highlight, ok bool)
}

// Sender delivers outbound actions to the chat network.
type Sender interface {
	Send(ctx context.Context, a event.Action) error
}

// Deps are the collaborators of a Router. Game, Narrator, Highlighter,
// Exit and After are optional.
type Deps struct {
	Settings    Settings
	Surface     presentation.Surface
	Game        GameWriter
	Narrator    Narrator
	Highlighter Highlighter
	// Random picks the narration delay; required when Narrator is set.
	Random narrative.Source
	// Version is reported in CTCP VERSION replies.
	Version string
	// Exit is called by the exit command.
	Exit func()
	// After schedules f after d; defaults to time.AfterFunc.
	After func(d time.Duration, f func())
	// Now defaults to time.Now.
	Now    func() time.Time
	Tick   time.Duration
	Logger *zap.Logger
}

// Router is the application context threaded through every use case.
// Roster, Settings and State belong to the inbound loop; other goroutines
// interact with the router only through the queues, the gate and the
// channel accessor.
type Router struct {
	inbound  *Queue[event.Event]
	outbound *Queue[event.Action]
	gate     *Gate

	roster   *roster.Roster
	ranks    rank.Resolver
	settings Settings
	state    State
	cooldown *narrative.Cooldown
	commands *command.Registry

	surface     presentation.Surface
	game        GameWriter
	narrator    Narrator
	highlighter Highlighter
	random      narrative.Source
	version     string
	exit        func()
	after       func(d time.Duration, f func())
	now         func() time.Time
	tick        time.Duration
	logger      *zap.Logger

	chMu    sync.RWMutex
	channel string
}

// New creates a Router.
//
// Precondition: deps.Surface and deps.Logger must be non-nil; deps.Settings
// must carry a nick, a channel and an ordering.
func New(deps Deps) *Router {
	r := &Router{
		inbound:     NewQueue[event.Event](),
		outbound:    NewQueue[event.Action](),
		gate:        NewGate(),
		roster:      roster.New(),
		settings:    deps.Settings,
		commands:    command.DefaultRegistry(),
		surface:     deps.Surface,
		game:        deps.Game,
		narrator:    deps.Narrator,
		highlighter: deps.Highlighter,
		random:      deps.Random,
		version:     deps.Version,
		exit:        deps.Exit,
		after:       deps.After,
		now:         deps.Now,
		tick:        deps.Tick,
		logger:      deps.Logger,
		channel:     deps.Settings.Channel,
	}
	if r.after == nil {
		r.after = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.tick <= 0 {
		r.tick = DefaultTick
	}
	if r.random == nil {
		r.random = narrative.NewCryptoSource()
	}
	if r.exit == nil {
		r.exit = func() {}
	}
	r.cooldown = narrative.NewCooldown(narrative.DeathCooldown, r.now)
	return r
}

// Push enqueues an inbound event. Safe for concurrent use.
func (r *Router) Push(e event.Event) { r.inbound.Push(e) }

// Send enqueues an outbound action. A nil action stops the outbound loop.
func (r *Router) Send(a event.Action) { r.outbound.Push(a) }

// Gate returns the joined-channel condition.
func (r *Router) Gate() *Gate { return r.gate }

// Channel returns the current channel. Safe for concurrent use.
func (r *Router) Channel() string {
	r.chMu.RLock()
	defer r.chMu.RUnlock()
	return r.channel
}

func (r *Router) setChannel(name string) {
	r.chMu.Lock()
	r.channel = name
	r.chMu.Unlock()
	r.settings.Channel = name
}

// JoinChannel asks the network to join the current channel.
func (r *Router) JoinChannel() {
	r.outbound.Push(event.Join{Channel: r.Channel()})
}

// RunInbound drains the inbound queue every tick, dispatching events in
// enqueue order. Content messages wait for the joined-channel gate.
//
// Postcondition: Returns ctx.Err() on cancellation, or the first handler
// error after FatalText has been shown.
func (r *Router) RunInbound(ctx context.Context) error {
	r.logger.Debug("starting inbound processing")
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := r.drain(ctx); err != nil {
			return err
		}
	}
}

func (r *Router) drain(ctx context.Context) error {
	for _, ev := range r.inbound.Drain() {
		if _, ok := ev.(event.Message); ok {
			if err := r.gate.Wait(ctx); err != nil {
				return err
			}
		}
		if err := r.dispatch(ctx, ev); err != nil {
			r.logger.Error("handling event failed",
				zap.String("type", fmt.Sprintf("%T", ev)),
				zap.String("id", ev.Meta().ID.String()),
				zap.Error(err),
			)
			r.errorLine(FatalText)
			return fmt.Errorf("handling %T: %w", ev, err)
		}
		r.renderIfDirty()
	}
	return nil
}

func (r *Router) dispatch(ctx context.Context, ev event.Event) error {
	switch e := ev.(type) {
	case event.WireEvent:
		return r.handleWire(e)
	case event.Message:
		return r.handleMessage(e)
	case event.AppEvent:
		return r.handleApp(e)
	case event.GameEvent:
		return r.handleGame(ctx, e)
	case event.Information:
		r.info(e.Text)
		return nil
	case event.Error:
		r.errorLine(e.Text)
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

// RunOutbound sends queued actions one at a time in FIFO order until a
// nil action is popped or ctx is done. Leaving and joining the channel
// also moves the gate and raises the matching lifecycle event.
func (r *Router) RunOutbound(ctx context.Context, sender Sender) error {
	r.logger.Debug("starting outbound processing")
	for {
		a, err := r.outbound.Pop(ctx)
		if err != nil {
			return err
		}
		if a == nil {
			r.logger.Info("outbound processing stopped")
			return nil
		}
		switch act := a.(type) {
		case event.Part:
			r.logger.Info("parting channel", zap.String("channel", act.Channel), zap.String("reason", act.Reason))
			r.gate.Clear()
			r.inbound.Push(event.NewApp(event.Disconnected))
			r.deliver(ctx, sender, a)
		case event.Join:
			r.logger.Info("joining channel", zap.String("channel", act.Channel))
			r.deliver(ctx, sender, a)
			r.inbound.Push(event.NewApp(event.Connected))
			r.gate.Set()
		default:
			r.deliver(ctx, sender, a)
		}
	}
}

func (r *Router) deliver(ctx context.Context, sender Sender, a event.Action) {
	if err := sender.Send(ctx, a); err != nil {
		r.logger.Warn("sending action failed", zap.String("type", fmt.Sprintf("%T", a)), zap.Error(err))
	}
}

// Stop ends the outbound loop after everything already queued.
func (r *Router) Stop() { r.outbound.Push(nil) }
