package coreapi

import (
	"testing"
	"time"
)

// TestTrailingWeek verifies the 7-day reporting window: it ends today and
// starts six days earlier, both at UTC midnight.
func TestTrailingWeek(t *testing.T) {
	start, end := trailingWeek(time.Date(2026, 8, 30, 14, 3, 9, 0, time.UTC))

	wantStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %s, want %s", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %s, want %s", end, wantEnd)
	}
	if end.Sub(start) != 6*24*time.Hour {
		t.Errorf("window spans %s, want 144h", end.Sub(start))
	}
}

// TestNextRun verifies the daily firing time relative to the configured hour.
func TestNextRun(t *testing.T) {
	s := NewScheduler(nil, 3)

	// Before 03:00 → fires later today.
	now := time.Date(2026, 8, 30, 1, 15, 0, 0, time.UTC)
	if got, want := s.nextRun(now), time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("nextRun(01:15) = %s, want %s", got, want)
	}

	// After 03:00 → fires tomorrow.
	now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if got, want := s.nextRun(now), time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("nextRun(12:00) = %s, want %s", got, want)
	}

	// Exactly 03:00 → fires tomorrow, never immediately.
	now = time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)
	if got, want := s.nextRun(now), time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("nextRun(03:00) = %s, want %s", got, want)
	}
}

// TestNextRun_AnchorsToUTC verifies the firing hour is UTC regardless of the
// caller's timezone, matching the UTC-anchored reporting window.
func TestNextRun_AnchorsToUTC(t *testing.T) {
	s := NewScheduler(nil, 3)

	// 01:15 local in UTC+5 is 20:15 UTC the previous day, so the run is
	// 03:00 UTC the same UTC day, not 03:00 local.
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, 8, 31, 1, 15, 0, 0, loc)
	want := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	if got := s.nextRun(now); !got.Equal(want) {
		t.Errorf("nextRun(UTC+5 01:15) = %s, want %s", got.UTC(), want)
	}
	if got := s.nextRun(now); got.Location() != time.UTC {
		t.Errorf("nextRun location = %s, want UTC", got.Location())
	}
}

// TestShouldReport verifies the scheduler's skip rules: a week that already
// has a report is never regenerated, so running the job twice in the same
// window is a no-op the second time; users without logs, or whose history
// starts after the week, are skipped too.
func TestShouldReport(t *testing.T) {
	weekStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	after := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		hasReport bool
		firstLog  *time.Time
		want      bool
	}{
		{"history covers week", false, &before, true},
		{"first log on week start", false, &weekStart, true},
		{"report already exists", true, &before, false},
		{"no logs at all", false, nil, false},
		{"first log after week start", false, &after, false},
	}
	for _, tt := range tests {
		if got := shouldReport(tt.hasReport, tt.firstLog, weekStart); got != tt.want {
			t.Errorf("%s: shouldReport = %v, want %v", tt.name, got, tt.want)
		}
	}

	// Second run over the same window: the first run's report now exists,
	// so the same user flips from due to not due.
	if !shouldReport(false, &before, weekStart) {
		t.Fatal("first run should be due")
	}
	if shouldReport(true, &before, weekStart) {
		t.Error("second run over the same window should generate nothing")
	}
}
