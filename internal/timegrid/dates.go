package timegrid

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage form of calendar dates.
const DateLayout = "2006-01-02"

var ErrMalformedDate = errors.New("malformed date")

// ViewMode selects the period covered by a stats view.
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
)

// ParseViewMode accepts day, week or month (case-insensitive). Empty means day.
func ParseViewMode(raw string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ViewDay:
		return ViewDay, nil
	case ViewWeek:
		return ViewWeek, nil
	case ViewMonth:
		return ViewMonth, nil
	default:
		return "", fmt.Errorf("unknown view mode %q", raw)
	}
}

// ParseDate parses a YYYY-MM-DD local calendar date.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	return d, nil
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DayOf truncates t to local midnight of its calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RangeFor returns the inclusive first and last day of the period containing date.
// Weeks run Sunday to Saturday.
func RangeFor(date time.Time, mode ViewMode) (time.Time, time.Time) {
	day := DayOf(date)
	switch mode {
	case ViewWeek:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return start, start.AddDate(0, 0, 6)
	case ViewMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return start, start.AddDate(0, 1, -1)
	default:
		return day, day
	}
}

// DaysInRange counts calendar days from start to end inclusive. It returns 0
// when end precedes start.
func DaysInRange(start, end time.Time) int {
	// Civil dates in UTC keep DST transitions out of the arithmetic.
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// Shift moves date by one period in direction dir (+1 or -1).
// Months move by 30 days.
func Shift(date time.Time, mode ViewMode, dir int) time.Time {
	days := 1
	switch mode {
	case ViewWeek:
		days = 7
	case ViewMonth:
		days = 30
	}
	return DayOf(date).AddDate(0, 0, days*dir)
}
