package persist

import (
	"context"
	"sync"

	"github.com/ganot/epistles/internal/repository"
)

// Memory keeps the blob in process memory.
type Memory struct {
	mu     sync.Mutex
	blob   string
	stored bool
	saves  int
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWith returns an in-memory repository holding blob.
func NewMemoryWith(blob string) *Memory {
	return &Memory{blob: blob, stored: true}
}

func (m *Memory) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stored {
		return "", repository.ErrNotFound
	}
	return m.blob, nil
}

func (m *Memory) Save(_ context.Context, blob string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = blob
	m.stored = true
	m.saves++
	return nil
}

func (m *Memory) Remove(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = ""
	m.stored = false
	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
