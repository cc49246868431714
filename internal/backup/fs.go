package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
)

// FSTarget writes backups as files directly under root.
type FSTarget struct {
	root string
}

// NewFS returns a filesystem target rooted at root, creating it if needed.
func NewFS(root string) (*FSTarget, error) {
	if root == "" {
		root = "./backups"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup root: %w", err)
	}
	return &FSTarget{root: root}, nil
}

func (t *FSTarget) Driver() Driver { return DriverFS }

// path maps key to a file under root. Keys are flat names.
func (t *FSTarget) path(key string) (string, error) {
	if strings.TrimSpace(key) == "" || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(t.root, key), nil
}

func (t *FSTarget) Put(_ context.Context, key string, r io.Reader) (Info, error) {
	path, err := t.path(key)
	if err != nil {
		return Info{}, err
	}
	if err := atomic.WriteFile(path, r); err != nil {
		return Info{}, fmt.Errorf("writing backup %s: %w", key, err)
	}
	return t.stat(key, path)
}

func (t *FSTarget) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := t.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("opening backup %s: %w", key, err)
	}
	return f, nil
}

func (t *FSTarget) Exists(_ context.Context, key string) (bool, error) {
	path, err := t.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *FSTarget) List(_ context.Context, prefix string) ([]Info, error) {
	entries, err := os.ReadDir(t.root)
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	infos := []Info{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		info, err := t.stat(e.Name(), filepath.Join(t.root, e.Name()))
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (t *FSTarget) stat(key, path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("stat backup %s: %w", key, err)
	}
	return Info{Key: key, Size: st.Size(), LastModified: st.ModTime().UTC()}, nil
}
