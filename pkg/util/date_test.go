package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeUnixMillis(t *testing.T) {
	ms := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	got, ok := ParseTime(strconv.FormatInt(ms, 10))
	if !ok || got.UnixMilli() != ms {
		t.Fatalf("unexpected %v %v", got, ok)
	}
}

func TestDayUsesUTCDate(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	in := time.Date(2024, 3, 1, 22, 30, 0, 0, ny) // 2024-03-02 03:30 UTC
	if got := DayKey(Day(in)); got != "2024-03-02" {
		t.Fatalf("day = %s", got)
	}
}

func TestCutoff(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)
	if got := DayKey(Cutoff(now, 30)); got != "2024-03-02" {
		t.Fatalf("cutoff = %s", got)
	}
	if got := DayKey(Cutoff(now, 1)); got != "2024-03-31" {
		t.Fatalf("one-day cutoff = %s", got)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  aapl "); got != "AAPL" {
		t.Fatalf("got %q", got)
	}
}
