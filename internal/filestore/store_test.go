package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ganot/epistles/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	store, err := New(dir)
	require.NoError(t, err)

	_, err = store.Get(ctx, "timeless_epistles_data_v1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Put(ctx, "timeless_epistles_data_v1", `{"projects":[]}`))
	require.NoError(t, store.Put(ctx, "timeless_epistles_data_v1", `{"projects":[],"ideas":[]}`))

	got, err := store.Get(ctx, "timeless_epistles_data_v1")
	require.NoError(t, err)
	require.Equal(t, `{"projects":[],"ideas":[]}`, got)

	info, err := os.Stat(filepath.Join(dir, "timeless_epistles_data_v1.json"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(filePerm), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, store.Delete(ctx, "timeless_epistles_data_v1"))
	require.NoError(t, store.Delete(ctx, "timeless_epistles_data_v1"))
	_, err = store.Get(ctx, "timeless_epistles_data_v1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_RejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		require.ErrorIs(t, store.Put(ctx, key, "x"), repository.ErrInvalidInput, key)
	}
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("")
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}
