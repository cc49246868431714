package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/epistles/internal/backup"
	"github.com/ganot/epistles/internal/domain/journal"
)

// ErrUnknownMethod is returned for tool names the handler does not know.
var ErrUnknownMethod = errors.New("unknown method")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`

	cause error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, journal.ErrProjectLimit):
		return &APIError{Code: "PROJECT_LIMIT", Message: err.Error(), cause: err, RecoveryHint: "Archive or delete an active project first"}
	case errors.Is(err, journal.ErrBlankIdea):
		return &APIError{Code: "BLANK_IDEA", Message: err.Error(), cause: err, RecoveryHint: "Provide non-empty idea text"}
	case errors.Is(err, journal.ErrInvalidImport):
		return &APIError{Code: "INVALID_IMPORT", Message: err.Error(), cause: err, RecoveryHint: "Pass a document produced by export_state"}
	case errors.Is(err, journal.ErrInvalidMonth):
		return &APIError{Code: "INVALID_MONTH", Message: err.Error(), cause: err, RecoveryHint: "Use YYYY-MM"}
	case errors.Is(err, journal.ErrInvalidDay):
		return &APIError{Code: "INVALID_DAY", Message: err.Error(), cause: err, RecoveryHint: "Days run from 1 to 31"}
	case errors.Is(err, backup.ErrNotFound):
		return &APIError{Code: "BACKUP_NOT_FOUND", Message: err.Error(), cause: err, RecoveryHint: "Call backup_list for available keys"}
	case errors.Is(err, backup.ErrInvalidKey):
		return &APIError{Code: "INVALID_BACKUP_KEY", Message: err.Error(), cause: err}
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: "UNKNOWN_METHOD", Message: err.Error(), cause: err}
	default:
		return nil
	}
}

func invalidParams(err error) *APIError {
	return &APIError{Code: "INVALID_PARAMS", Message: err.Error(), cause: err, RecoveryHint: "Check the tool's input schema"}
}
