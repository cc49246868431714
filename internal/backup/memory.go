package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryTarget keeps backups in process memory.
type MemoryTarget struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data     []byte
	modified time.Time
}

// NewMemory returns an empty in-memory target.
func NewMemory() *MemoryTarget {
	return &MemoryTarget{objects: make(map[string]memObject)}
}

func (m *MemoryTarget) Driver() Driver { return DriverMemory }

func (m *MemoryTarget) Put(_ context.Context, key string, r io.Reader) (Info, error) {
	if strings.TrimSpace(key) == "" {
		return Info{}, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	obj := memObject{data: data, modified: time.Now().UTC()}
	m.mu.Lock()
	m.objects[key] = obj
	m.mu.Unlock()
	return Info{Key: key, Size: int64(len(data)), LastModified: obj.modified}, nil
}

func (m *MemoryTarget) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *MemoryTarget) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryTarget) List(_ context.Context, prefix string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := []Info{}
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, Info{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
