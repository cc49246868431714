package journal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/epistles/internal/clock"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidMonth reports whether month is in YYYY-MM form.
func ValidMonth(month string) bool {
	return monthPattern.MatchString(month)
}

// CellKey builds the matrix key for a project's note on a given day.
func CellKey(month string, day int, projectID int64) string {
	return fmt.Sprintf("%s-%02d-%d", month, day, projectID)
}

// keyDate returns the first three dash segments of a key ("YYYY-MM-DD").
func keyDate(key string) string {
	return joinSegments(key, 3)
}

// keyMonth returns the first two dash segments of a key ("YYYY-MM").
func keyMonth(key string) string {
	return joinSegments(key, 2)
}

func joinSegments(key string, n int) string {
	parts := strings.SplitN(key, "-", n+1)
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.Join(parts, "-")
}

func projectSuffix(projectID int64) string {
	return "-" + strconv.FormatInt(projectID, 10)
}

// CreationMonth returns the "YYYY-MM" month encoded by a project id.
func CreationMonth(projectID int64, loc *time.Location) string {
	t := time.UnixMilli(projectID)
	if loc != nil {
		t = t.In(loc)
	}
	return clock.Month(t)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
