package util

import (
	"strconv"
	"time"
)

// DayKeyLayout is the calendar-date form used to key candles.
const DayKeyLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, a bare date, and unix seconds or milliseconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, DayKeyLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		if ts > 1e11 {
			return time.UnixMilli(ts), true
		}
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// Day truncates t to midnight UTC of its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats the UTC calendar date of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}

// Cutoff returns the first of the n calendar days ending on Day(now), so the window
// [Cutoff(now, n), Day(now)] holds exactly n days.
func Cutoff(now time.Time, days int) time.Time {
	if days < 1 {
		days = 1
	}
	return Day(now).AddDate(0, 0, -(days - 1))
}
