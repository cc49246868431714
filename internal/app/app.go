// Package app assembles the journal, its storage, backups and metrics from
// configuration, and exposes them over MCP and HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ganot/epistles/internal/backup"
	"github.com/ganot/epistles/internal/clock"
	"github.com/ganot/epistles/internal/config"
	"github.com/ganot/epistles/internal/domain/journal"
	"github.com/ganot/epistles/internal/mcp"
	"github.com/ganot/epistles/internal/metrics"
	"github.com/ganot/epistles/internal/migration"
	"github.com/ganot/epistles/internal/persist"
	"github.com/ganot/epistles/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// App holds the assembled services.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Journal *journal.Service
	Backups *backup.Exporter
	Metrics *metrics.Metrics
	// Legacy describes the upgrade applied to the stored document on load.
	Legacy journal.UpgradeReport

	storage *persist.Handle
}

// Option customises New.
type Option func(*options)

type options struct {
	clock      clock.Clock
	repository journal.Repository
	target     backup.Target
}

// WithClock overrides the system clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRepository bypasses the configured storage driver.
func WithRepository(r journal.Repository) Option {
	return func(o *options) { o.repository = r }
}

// WithBackupTarget bypasses the configured backup driver.
func WithBackupTarget(t backup.Target) Option {
	return func(o *options) { o.target = t }
}

// New opens storage and backups and loads the journal.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := cfg.Journal.Location()
	if err != nil {
		return nil, err
	}
	clk := o.clock
	if clk == nil {
		clk = clock.System{Location: loc}
	}

	storage := &persist.Handle{Repository: o.repository, Driver: "custom"}
	if o.repository == nil {
		storage, err = persist.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	target := o.target
	if target == nil {
		target, err = backup.Open(ctx, cfg.Backup)
		if err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("open backup target: %w", err)
		}
	}

	m := metrics.New()
	svc := journal.NewService(storage.Repository, migration.New(), clk, logger,
		journal.WithRecorder(m),
		journal.WithImportUpgrade(cfg.Import.UpgradeLegacy),
	)
	report, err := svc.Load(ctx)
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("load journal: %w", err)
	}

	logger.Info("journal loaded",
		"storage", storage.Driver,
		"backup", target.Driver(),
		"projects", len(svc.Snapshot().Projects),
		"legacy_keys", report.MatrixKeys,
		"legacy_ideas", report.Ideas,
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Journal: svc,
		Backups: backup.NewExporter(svc, target, clk, logger),
		Metrics: m,
		Legacy:  report,
		storage: storage,
	}, nil
}

// Close releases storage.
func (a *App) Close() error {
	return a.storage.Close()
}

// MCPServer builds the MCP server for the configured transport mode.
func (a *App) MCPServer() *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Journal:       a.Journal,
		Backups:       a.Backups,
		Recorder:      a.Metrics,
		AuthToken:     a.Config.Auth.Token,
		AuthEnabled:   a.Config.Auth.Enabled,
		TransportMode: a.Config.Transport.Mode,
		Version:       Version,
		Logger:        a.Logger,
	})
}

// HTTPHandler serves /mcp, /rpc, /health and /metrics.
func (a *App) HTTPHandler() http.Handler {
	server := a.MCPServer()
	streamable := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	token := ""
	if a.Config.Auth.Enabled {
		token = a.Config.Auth.Token
	}
	return transport.NewServer(transport.Options{
		Handler:   mcp.NewHandler(a.Journal, a.Backups),
		MCP:       streamable,
		Metrics:   a.Metrics.Handler(),
		AuthToken: token,
		Logger:    a.Logger,
	})
}

// RunStdio serves MCP over stdin/stdout until ctx is done or stdin closes.
func (a *App) RunStdio(ctx context.Context) error {
	a.Logger.Info("starting stdio transport", "auth", "disabled")
	return a.MCPServer().Run(ctx, &sdkmcp.StdioTransport{})
}

// RunHTTP serves HTTPHandler on the configured address until ctx is done.
func (a *App) RunHTTP(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           a.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", "addr", addr, "auth", a.Config.Auth.Enabled)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
