package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// BlobRepository is a mock for journal.Repository.
type BlobRepository struct {
	mock.Mock
}

func (m *BlobRepository) Load(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *BlobRepository) Save(ctx context.Context, blob string) error {
	args := m.Called(ctx, blob)
	return args.Error(0)
}

func (m *BlobRepository) Remove(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Recorder is a mock for journal.Recorder.
type Recorder struct {
	mock.Mock
}

func (m *Recorder) Observe(op string, err error, d time.Duration) {
	m.Called(op, err, d)
}

func (m *Recorder) PersistResult(err error) {
	m.Called(err)
}
