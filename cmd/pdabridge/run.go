package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/config"
	"github.com/cory-johannsen/pdabridge/internal/observability"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the chat network and bridge it to the game",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func run(parent context.Context) error {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The terminal UI owns the screen; logs may only go to a file.
	newLogger := observability.NewLogger
	if cfg.UI.Mode == config.UIModeTUI {
		newLogger = observability.Quiet
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger, cancel)
	if err != nil {
		logger.Error("building bridge", zap.Error(err))
		return err
	}
	defer a.close()

	logger.Info("bridge ready",
		zap.String("version", version),
		zap.String("server", cfg.Server.Addr()),
		zap.String("nick", cfg.Identity.Nick),
		zap.Strings("services", a.lifecycle.Names()),
		zap.Duration("startup", time.Since(start)),
	)
	if err := a.lifecycle.Run(ctx); err != nil {
		logger.Error("bridge stopped", zap.Error(err))
		return err
	}
	logger.Info("bridge stopped")
	return nil
}
