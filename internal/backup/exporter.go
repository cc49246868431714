package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/ganot/epistles/internal/clock"
	"github.com/ganot/epistles/internal/domain/journal"
)

// KeyPrefix starts every backup object name.
const KeyPrefix = "timeless-epistles-backup-"

// maxRestoreBytes bounds how much of a backup object Restore reads.
const maxRestoreBytes = 64 << 20

// Journal is the part of the journal service backups need.
type Journal interface {
	Export() (string, error)
	Import(ctx context.Context, raw string) (journal.UpgradeReport, error)
}

// Exporter writes journal exports to a target and restores them.
type Exporter struct {
	journal Journal
	target  Target
	clock   clock.Clock
	logger  *slog.Logger
}

// NewExporter creates an exporter. A nil clock reads the system time.
func NewExporter(j Journal, target Target, clk clock.Clock, logger *slog.Logger) *Exporter {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{journal: j, target: target, clock: clk, logger: logger}
}

// Target returns the configured backup target.
func (e *Exporter) Target() Target { return e.target }

// Export writes the current state to a date-stamped object. A second export
// on the same day gets a time suffix rather than replacing the first.
func (e *Exporter) Export(ctx context.Context) (Info, error) {
	doc, err := e.journal.Export()
	if err != nil {
		return Info{}, err
	}
	key, err := e.nextKey(ctx)
	if err != nil {
		return Info{}, err
	}
	info, err := e.target.Put(ctx, key, strings.NewReader(doc))
	if err != nil {
		return Info{}, err
	}
	e.logger.Info("journal exported", "driver", e.target.Driver(), "key", info.Key, "bytes", info.Size)
	return info, nil
}

func (e *Exporter) nextKey(ctx context.Context) (string, error) {
	now := e.clock.Now().UTC()
	base := KeyPrefix + now.Format(clock.DateLayout)
	candidates := []string{base + ".json", base + "-" + now.Format("150405") + ".json"}
	for _, key := range candidates {
		exists, err := e.target.Exists(ctx, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
	}
	for n := 2; ; n++ {
		key := fmt.Sprintf("%s-%s-%d.json", base, now.Format("150405"), n)
		exists, err := e.target.Exists(ctx, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
	}
}

// List returns the stored backups, newest first.
func (e *Exporter) List(ctx context.Context) ([]Info, error) {
	infos, err := e.target.List(ctx, KeyPrefix)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(infos, func(a, b Info) int {
		if c := b.LastModified.Compare(a.LastModified); c != 0 {
			return c
		}
		return strings.Compare(b.Key, a.Key)
	})
	return infos, nil
}

// Restore imports the backup stored under key, replacing the journal state.
func (e *Exporter) Restore(ctx context.Context, key string) (journal.UpgradeReport, error) {
	rc, err := e.target.Get(ctx, key)
	if err != nil {
		return journal.UpgradeReport{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxRestoreBytes+1))
	if err != nil {
		return journal.UpgradeReport{}, fmt.Errorf("reading backup %s: %w", key, err)
	}
	if len(data) > maxRestoreBytes {
		return journal.UpgradeReport{}, fmt.Errorf("%w: backup %s exceeds %d bytes", journal.ErrInvalidImport, key, maxRestoreBytes)
	}
	report, err := e.journal.Import(ctx, string(data))
	if err != nil {
		return journal.UpgradeReport{}, err
	}
	e.logger.Info("journal restored", "driver", e.target.Driver(), "key", key)
	return report, nil
}
