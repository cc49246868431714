// Package clock provides the time source used for ids, archive stamps and
// month defaults.
package clock

import (
	"sync"
	"time"
)

// MonthLayout formats a time as a matrix month ("2006-01").
const MonthLayout = "2006-01"

// DateLayout formats a time as a matrix date ("2006-01-02").
const DateLayout = "2006-01-02"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in a fixed location.
type System struct {
	Location *time.Location
}

// Now implements Clock.
func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Manual is a settable clock for tests. Each call to Now advances the clock
// by Step after reading it.
type Manual struct {
	mu      sync.Mutex
	current time.Time
	Step    time.Duration
}

// NewManual returns a clock fixed at t.
func NewManual(t time.Time) *Manual {
	return &Manual{current: t}
}

// Now implements Clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.current
	m.current = m.current.Add(m.Step)
	return now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.current = m.current.Add(d)
	m.mu.Unlock()
}

// Month returns the "YYYY-MM" string for t.
func Month(t time.Time) string {
	return t.Format(MonthLayout)
}

// Millis converts t to a millisecond Unix timestamp.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
