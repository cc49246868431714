package journal

import (
	"context"
	"time"
)

// Repository persists the serialized state blob under one fixed key.
// Load returns repository.ErrNotFound when nothing was ever saved.
type Repository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, blob string) error
	Remove(ctx context.Context) error
}

// Upgrader converts a persisted document, possibly in a legacy shape, into
// the current state shape.
type Upgrader interface {
	Upgrade(blob []byte, now time.Time) (State, UpgradeReport, error)
	Inspect(blob []byte) (UpgradeReport, error)
}

// UpgradeReport counts the legacy shapes found in a document.
type UpgradeReport struct {
	MatrixKeys int `json:"matrix_keys"`
	Ideas      int `json:"ideas"`
}

// Legacy reports whether any legacy shape was present.
func (r UpgradeReport) Legacy() bool {
	return r.MatrixKeys > 0 || r.Ideas > 0
}

// Recorder observes operation outcomes.
type Recorder interface {
	Observe(op string, err error, d time.Duration)
	PersistResult(err error)
}
