package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidWindow is returned for a non-positive day count.
var ErrInvalidWindow = errors.New("invalid time window")

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// ResolveWindow anchors the window start at UTC midnight `days` calendar days before now.
func ResolveWindow(days int, now time.Time) (Window, error) {
	if days <= 0 {
		return Window{}, fmt.Errorf("%w: days must be > 0, got %d", ErrInvalidWindow, days)
	}
	utcNow := now.UTC()
	start := StartOfDay(utcNow).AddDate(0, 0, -days)
	return Window{Start: start, End: utcNow}, nil
}

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func StartOfMonth(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), 1, 0, 0, 0, 0, value.Location())
}

// FormatSeconds renders a duration as "25h 15m 45s". Hours are not folded into days.
func FormatSeconds(seconds int) string {
	parts := make([]string, 0, 3)
	if seconds >= 3600 {
		parts = append(parts, strconv.Itoa(seconds/3600)+"h")
		seconds %= 3600
	}
	if seconds >= 60 {
		parts = append(parts, strconv.Itoa(seconds/60)+"m")
		seconds %= 60
	}
	if seconds > 0 {
		parts = append(parts, strconv.Itoa(seconds)+"s")
	}
	return strings.Join(parts, " ")
}
