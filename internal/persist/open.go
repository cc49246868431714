package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ganot/epistles/internal/config"
	"github.com/ganot/epistles/internal/domain/journal"
	"github.com/ganot/epistles/internal/filestore"
	"github.com/ganot/epistles/internal/postgres"
	"github.com/ganot/epistles/internal/sqlite"
)

// Handle is an opened journal repository plus the resources backing it.
type Handle struct {
	Repository journal.Repository
	Driver     string
	close      func() error
}

// Close releases the driver's resources.
func (h *Handle) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// Open opens the storage driver named in cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (*Handle, error) {
	switch cfg.Driver {
	case "memory":
		return &Handle{Repository: NewMemory(), Driver: cfg.Driver}, nil

	case "file":
		store, err := filestore.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Handle{Repository: NewKeyed(store, cfg.Key), Driver: cfg.Driver}, nil

	case "postgres":
		store, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &Handle{Repository: NewKeyed(store, cfg.Key), Driver: cfg.Driver, close: store.Close}, nil

	case "sqlite", "":
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("failed to prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, err
		}
		return &Handle{Repository: NewKeyed(sqlite.NewKVStore(db), cfg.Key), Driver: "sqlite", close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
