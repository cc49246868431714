// Package persist binds the journal's single document to a blob store key
// and opens the configured storage driver.
package persist

import (
	"context"

	"github.com/ganot/epistles/internal/domain/journal"
	"github.com/ganot/epistles/internal/repository"
)

// Keyed stores the journal document under one fixed key of a BlobStore.
type Keyed struct {
	Store repository.BlobStore
	Key   string
}

var _ journal.Repository = Keyed{}

// NewKeyed binds store to key, falling back to journal.StorageKey.
func NewKeyed(store repository.BlobStore, key string) Keyed {
	if key == "" {
		key = journal.StorageKey
	}
	return Keyed{Store: store, Key: key}
}

func (k Keyed) Load(ctx context.Context) (string, error) {
	return k.Store.Get(ctx, k.Key)
}

func (k Keyed) Save(ctx context.Context, blob string) error {
	return k.Store.Put(ctx, k.Key, blob)
}

func (k Keyed) Remove(ctx context.Context) error {
	return k.Store.Delete(ctx, k.Key)
}
