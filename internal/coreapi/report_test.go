package coreapi

import (
	"strings"
	"testing"
	"time"
)

// testUser returns a profile used across report tests: male, 30, 175cm,
// 80kg starting weight, 70kg target, moderate activity. With no logged
// weight the daily target works out to 2303 (see calories_test.go).
func testUser() user {
	return user{
		ID:             1,
		TelegramID:     "42",
		Age:            30,
		Sex:            "male",
		HeightCM:       175,
		StartWeightKG:  80,
		TargetWeightKG: 70,
		ActivityLevel:  "moderate",
	}
}

// logOn builds a dailyLog for the given day offset with optional fields.
func logOn(day int, calories, weight, waist *float64, activity *string) dailyLog {
	base := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	return dailyLog{
		UserID:        1,
		Date:          DateOnly{base.AddDate(0, 0, day)},
		CaloriesIn:    calories,
		WeightKG:      weight,
		WaistCM:       waist,
		ActivityLevel: activity,
	}
}

func fp(v float64) *float64 { return &v }
func sp(v string) *string   { return &v }

/* ─── calcChange tests ───────────────────────────────────────────────── */

// TestCalcChange covers empty, single-sample, and multi-sample series.
// A single sample yields 0 by design: first == last means "no measured
// change", which is distinct from nil ("no data").
func TestCalcChange(t *testing.T) {
	if got := calcChange(nil); got != nil {
		t.Errorf("calcChange(nil) = %v, want nil", *got)
	}
	if got := calcChange([]float64{81.5}); got == nil || *got != 0 {
		t.Errorf("calcChange(single sample) = %v, want 0", got)
	}
	if got := calcChange([]float64{81.5, 81.0, 80.2}); got == nil || *got != -1.3 {
		t.Errorf("calcChange = %v, want -1.3", got)
	}
	if got := calcChange([]float64{80.0, 80.55}); got == nil || *got != 0.6 {
		t.Errorf("calcChange = %v, want 0.6 (rounded to one decimal)", got)
	}
}

/* ─── buildWeeklyReport tests ────────────────────────────────────────── */

// TestBuildWeeklyReport_FullWeek verifies aggregates and flags for a week
// with calories, weights, and waist measurements.
func TestBuildWeeklyReport_FullWeek(t *testing.T) {
	logs := []dailyLog{
		logOn(0, fp(2400), fp(80), fp(90), nil),
		logOn(1, fp(2200), nil, nil, nil),
		logOn(2, nil, fp(79.5), fp(89.2), nil),
		logOn(3, fp(2600), nil, nil, nil),
	}
	content := buildWeeklyReport(testUser(), logs)

	// avg = (2400+2200+2600)/3 = 2400.0; latest weight 79.5 drives the
	// target: BMR 1743.75+5-... recomputed below via the calculator itself.
	target := calculateDailyCalories(79.5, 175, 30, "male", "moderate", 70).DailyTarget

	if got := content.StatusFlags["avg_calories"]; got != 2400.0 {
		t.Errorf("avg_calories = %v, want 2400.0", got)
	}
	wantDelta := round1(2400.0 - float64(target))
	if got := content.StatusFlags["calorie_delta"]; got != wantDelta {
		t.Errorf("calorie_delta = %v, want %v", got, wantDelta)
	}
	if got := content.StatusFlags["weight_change"]; got != -0.5 {
		t.Errorf("weight_change = %v, want -0.5", got)
	}
	if got := content.StatusFlags["waist_change"]; got != -0.8 {
		t.Errorf("waist_change = %v, want -0.8", got)
	}
	if _, ok := content.StatusFlags["low_activity"]; ok {
		t.Error("low_activity flag should be absent when no activity was logged")
	}
	if !strings.Contains(content.SummaryText, "Weight change: -0.5 kg.") {
		t.Errorf("summary missing weight sentence: %q", content.SummaryText)
	}
	if !strings.Contains(content.SummaryText, "Waist change: -0.8 cm.") {
		t.Errorf("summary missing waist sentence: %q", content.SummaryText)
	}
}

// TestBuildWeeklyReport_SingleWeightSample verifies the documented edge case:
// exactly one weight measurement in range yields a change of 0, not nil.
func TestBuildWeeklyReport_SingleWeightSample(t *testing.T) {
	logs := []dailyLog{logOn(2, nil, fp(78.8), nil, nil)}
	content := buildWeeklyReport(testUser(), logs)

	if got, ok := content.StatusFlags["weight_change"]; !ok || got != 0.0 {
		t.Errorf("weight_change = %v (present=%v), want 0 present", got, ok)
	}
	if !strings.Contains(content.SummaryText, "Weight change: +0.0 kg.") {
		t.Errorf("summary should report a signed zero change: %q", content.SummaryText)
	}
}

// TestBuildWeeklyReport_EmptyWeek verifies that a week with no logs still
// produces a report: header and target sentences only, and a sparse flag map
// with no entries.
func TestBuildWeeklyReport_EmptyWeek(t *testing.T) {
	content := buildWeeklyReport(testUser(), nil)

	if len(content.StatusFlags) != 0 {
		t.Errorf("expected empty status flags, got %v", content.StatusFlags)
	}
	// Falls back to the starting weight → target 2303.
	if !strings.Contains(content.SummaryText, "Calorie target: ~2303 kcal/day.") {
		t.Errorf("summary missing target sentence: %q", content.SummaryText)
	}
	if strings.Contains(content.SummaryText, "Average intake") {
		t.Errorf("summary should not mention intake with no calorie data: %q", content.SummaryText)
	}
}

// TestBuildWeeklyReport_OnTargetBand verifies the ±100 kcal band using the
// worked example: avg 2400 vs target 2303 → delta 97 → on target.
func TestBuildWeeklyReport_OnTargetBand(t *testing.T) {
	logs := []dailyLog{logOn(0, fp(2400), nil, nil, nil)}
	content := buildWeeklyReport(testUser(), logs)

	if got := content.StatusFlags["calorie_delta"]; got != 97.0 {
		t.Errorf("calorie_delta = %v, want 97.0", got)
	}
	if !strings.Contains(content.SummaryText, "right around your target") {
		t.Errorf("delta 97 should read as on-target: %q", content.SummaryText)
	}
}

// TestBuildWeeklyReport_OverAndUnder verifies the over/under arms of the band.
func TestBuildWeeklyReport_OverAndUnder(t *testing.T) {
	over := buildWeeklyReport(testUser(), []dailyLog{logOn(0, fp(2500), nil, nil, nil)})
	if !strings.Contains(over.SummaryText, "ran over target") {
		t.Errorf("delta +197 should read as over: %q", over.SummaryText)
	}
	under := buildWeeklyReport(testUser(), []dailyLog{logOn(0, fp(2100), nil, nil, nil)})
	if !strings.Contains(under.SummaryText, "under target") {
		t.Errorf("delta -203 should read as under: %q", under.SummaryText)
	}
}

// TestBuildWeeklyReport_LowActivityFlag verifies the 0.6 ratio threshold:
// 3 of 5 logged levels (0.6 exactly) fires the flag, 2 of 5 does not.
// Days without an activity override don't count toward the ratio.
func TestBuildWeeklyReport_LowActivityFlag(t *testing.T) {
	flagged := buildWeeklyReport(testUser(), []dailyLog{
		logOn(0, nil, nil, nil, sp("low")),
		logOn(1, nil, nil, nil, sp("low")),
		logOn(2, nil, nil, nil, sp("low")),
		logOn(3, nil, nil, nil, sp("moderate")),
		logOn(4, nil, nil, nil, sp("high")),
		logOn(5, nil, nil, nil, nil), // no override — excluded from the ratio
	})
	if got, ok := flagged.StatusFlags["low_activity"]; !ok || got != true {
		t.Errorf("ratio 3/5 should set low_activity, got %v (present=%v)", got, ok)
	}
	if !strings.Contains(flagged.SummaryText, "Activity was low") {
		t.Errorf("summary missing low-activity warning: %q", flagged.SummaryText)
	}

	unflagged := buildWeeklyReport(testUser(), []dailyLog{
		logOn(0, nil, nil, nil, sp("low")),
		logOn(1, nil, nil, nil, sp("low")),
		logOn(2, nil, nil, nil, sp("moderate")),
		logOn(3, nil, nil, nil, sp("high")),
		logOn(4, nil, nil, nil, sp("high")),
	})
	if _, ok := unflagged.StatusFlags["low_activity"]; ok {
		t.Error("ratio 2/5 should not set low_activity")
	}
}
