// Package backup stores exported journal documents as named objects on a
// local directory, an S3 bucket or in memory.
package backup

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver names a backup target implementation.
type Driver string

const (
	DriverFS     Driver = "fs"
	DriverS3     Driver = "s3"
	DriverMemory Driver = "memory"
)

var (
	// ErrNotFound is returned when a backup object does not exist.
	ErrNotFound = errors.New("backup not found")
	// ErrInvalidKey is returned for empty keys or keys that escape the root.
	ErrInvalidKey = errors.New("invalid backup key")
)

// Info describes a stored backup object.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Target is a place backups can be written to and read from.
type Target interface {
	Driver() Driver
	Put(ctx context.Context, key string, r io.Reader) (Info, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
}
