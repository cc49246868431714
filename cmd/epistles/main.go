package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ganot/epistles/internal/app"
	"github.com/ganot/epistles/internal/config"
)

func main() {
	root := newRootCmd(openFromConfig)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openFromConfig(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	// The CLI only logs problems; journal output goes to stdout.
	level := slog.LevelWarn
	if cfg.Log.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return app.New(ctx, cfg, logger)
}
