package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/archive"
	"github.com/cory-johannsen/pdabridge/internal/bridge"
	"github.com/cory-johannsen/pdabridge/internal/config"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/frontend/console"
	"github.com/cory-johannsen/pdabridge/internal/frontend/tui"
	"github.com/cory-johannsen/pdabridge/internal/gamewatch"
	"github.com/cory-johannsen/pdabridge/internal/narrative"
	"github.com/cory-johannsen/pdabridge/internal/normalizer"
	"github.com/cory-johannsen/pdabridge/internal/overlay"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/router"
	"github.com/cory-johannsen/pdabridge/internal/scripting"
	"github.com/cory-johannsen/pdabridge/internal/server"
	"github.com/cory-johannsen/pdabridge/internal/status"
	"github.com/cory-johannsen/pdabridge/internal/storage/postgres"
	"github.com/cory-johannsen/pdabridge/internal/storage/sqlite"
	"github.com/cory-johannsen/pdabridge/internal/update"
	"github.com/cory-johannsen/pdabridge/internal/wire"
)

// recoveryPause separates the steps of the nick recovery sequence.
const recoveryPause = time.Second

// app holds the wired bridge. Everything long-running is registered with
// lifecycle; closers release what is left once it returns.
type app struct {
	router    *router.Router
	client    *wire.Client
	lifecycle *server.Lifecycle
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires every component named in cfg. exit is called by the
// exit command.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger, exit func()) (_ *app, err error) {
	a := &app{lifecycle: server.NewLifecycle(logger)}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	settings, err := router.SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	corpus, err := loadCorpus(cfg.Game.CorpusDir)
	if err != nil {
		return nil, err
	}
	logger.Info("narrative corpus loaded", zap.String("override", cfg.Game.CorpusDir))

	// The router only exists after its surfaces, and some surfaces feed
	// input back into it.
	sink := &lateSink{}
	surfaces, err := a.surfaces(ctx, cfg, sink, logger)
	if err != nil {
		return nil, err
	}

	var hl router.Highlighter
	var highlighter *scripting.Highlighter
	if cfg.Scripting.Dir != "" {
		highlighter, err = scripting.LoadHighlighter(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit, logger)
		if err != nil {
			return nil, fmt.Errorf("loading highlight scripts: %w", err)
		}
		a.closers = append(a.closers, highlighter.Close)
		hl = highlighter
		logger.Info("highlight scripts loaded", zap.String("dir", cfg.Scripting.Dir))
	}

	writer := bridge.NewWriter(logger)
	a.router = router.New(router.Deps{
		Settings:    settings,
		Surface:     surfaces,
		Game:        writer,
		Narrator:    narrative.NewGenerator(corpus, narrative.NewCryptoSource()),
		Highlighter: hl,
		Version:     version,
		Exit:        exit,
		Logger:      logger.Named("router"),
	})
	r := a.router
	sink.set(r)

	norm := normalizer.New(r, r.Gate(), func() string { return a.client.Nick() }, logger.Named("normalizer"))
	a.client = wire.NewClient(wire.Options{
		Addr:         cfg.Server.Addr(),
		Nick:         cfg.Identity.Nick,
		Password:     cfg.Identity.Password,
		ReconnectMax: cfg.Server.ReconnectMax,
		Pause:        recoveryPause,
	}, wire.Hooks{
		OnMessage:      norm.Handle,
		OnWelcome:      r.JoinChannel,
		OnReconnecting: func(reason string) { r.Push(event.NewAppText(event.Reconnecting, reason)) },
		OnNickChanged:  func(nick string) { r.Push(event.NewAppText(event.NicknameChanged, nick)) },
		OnInformation:  func(text string) { r.Push(event.NewInformation(text)) },
		OnIdentified:   func() { logger.Info("nick identified", zap.String("nick", a.client.Nick())) },
	}, logger.Named("wire"))
	if highlighter != nil {
		highlighter.Nick = a.client.Nick
	}

	watcher := bridge.NewWatcher(func(rec bridge.Record) { r.Push(event.NewGame(rec)) }, logger.Named("bridge"))
	detector := gamewatch.NewDetector(
		gamewatch.SystemFinder{},
		cfg.Game.ProcessName,
		cfg.Game.ScanInterval,
		gamewatch.NewPool(),
		r,
		watcher,
		logger.Named("gamewatch"),
	)

	a.lifecycle.Add("router-inbound", &server.FuncService{StartFn: r.RunInbound})
	a.lifecycle.Add("router-outbound", &server.FuncService{
		StartFn: func(ctx context.Context) error { return r.RunOutbound(ctx, a.client) },
		StopFn:  r.Stop,
	})
	a.lifecycle.Add("chat", &server.FuncService{StartFn: a.client.Run})
	a.lifecycle.Add("game-detector", &server.FuncService{StartFn: detector.Run})

	if cfg.Status.Addr != "" {
		a.lifecycle.Add("status", status.NewServer(cfg.Status.Addr, r.Gate(), logger.Named("status")))
	}
	if cfg.Update.Enabled {
		checker := update.NewChecker(&http.Client{Timeout: 30 * time.Second}, cfg.Update.URL, version, cfg.Update.Interval, r, logger.Named("update"))
		a.lifecycle.Add("update", &server.FuncService{StartFn: checker.Run})
	}
	return a, nil
}

// surfaces builds the presentation fan-out and registers the services
// behind it.
func (a *app) surfaces(ctx context.Context, cfg config.Config, sink presentation.Sink, logger *zap.Logger) (presentation.Multi, error) {
	var out presentation.Multi

	switch cfg.UI.Mode {
	case config.UIModeTUI:
		ui := tui.New(fmt.Sprintf("PDA bridge %s  %s", version, cfg.Server.Addr()), sink)
		out = append(out, ui)
		a.lifecycle.Add("tui", ui)
	default:
		out = append(out, presentation.NewLog(logger.Named("surface")))
	}

	store, err := openStore(ctx, cfg.Archive, logger)
	if err != nil {
		return nil, err
	}
	if store != nil {
		a.closers = append(a.closers, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing archive", zap.Error(err))
			}
		})
		archiver := archive.NewArchiver(store, archive.DefaultBuffer, logger.Named("archive"))
		out = append(out, archiver)
		a.lifecycle.Add("archive", &server.FuncService{StartFn: archiver.Run})
	}

	if cfg.Overlay.Enabled {
		var pub overlay.Publisher
		if cfg.Overlay.NATSURL != "" {
			np, err := overlay.ConnectNATS(cfg.Overlay.NATSURL, cfg.Overlay.NATSSubject, logger.Named("nats"))
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, np.Close)
			pub = np
		}
		ov := overlay.New(cfg.Overlay.Addr, pub, logger.Named("overlay"))
		out = append(out, ov)
		a.lifecycle.Add("overlay", ov)
	}

	if cfg.Console.Enabled {
		c := console.New(cfg.Console.PasswordHash, sink, logger.Named("console"))
		out = append(out, c)
		a.lifecycle.Add("console", console.NewAcceptor(cfg.Console, c, logger.Named("console")))
	}
	return out, nil
}

// openStore migrates and opens the configured archive. It returns nil
// when archiving is off.
func openStore(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (archive.Store, error) {
	switch cfg.Driver {
	case archive.DriverSQLite:
		if _, err := archive.Migrate(archive.DriverSQLite, cfg.Path, archive.Up, 0, logger); err != nil {
			return nil, err
		}
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case archive.DriverPostgres:
		if _, err := archive.Migrate(archive.DriverPostgres, cfg.Database.DSN(), archive.Up, 0, logger); err != nil {
			return nil, err
		}
		store, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return store, nil
	case archive.DriverNone, "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
}

func loadCorpus(dir string) (*narrative.Corpus, error) {
	if dir == "" {
		return narrative.LoadEmbedded()
	}
	return narrative.LoadWithOverride(dir)
}

// lateSink forwards to the router once it exists. It is set before any
// service starts, so no surface can push into it earlier.
type lateSink struct {
	r *router.Router
}

func (s *lateSink) set(r *router.Router) { s.r = r }

func (s *lateSink) Push(e event.Event) {
	if s.r != nil {
		s.r.Push(e)
	}
}
