package journal

import "errors"

var (
	// ErrProjectLimit indicates the active-project cap has been reached.
	ErrProjectLimit = errors.New("at most 9 active projects are allowed")
	// ErrBlankIdea indicates an idea with empty or whitespace-only text.
	ErrBlankIdea = errors.New("idea text is blank")
	// ErrInvalidImport indicates an import payload that is not valid JSON.
	ErrInvalidImport = errors.New("invalid import document")
	// ErrInvalidMonth indicates a month that is not in YYYY-MM form.
	ErrInvalidMonth = errors.New("invalid month")
	// ErrInvalidDay indicates a matrix day outside 1..31.
	ErrInvalidDay = errors.New("invalid day")
)
