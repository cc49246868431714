package repository

import "errors"

var (
	// ErrNotFound is returned when nothing is stored under the requested key
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a repository is constructed or called with bad arguments
	ErrInvalidInput = errors.New("invalid input")
)
