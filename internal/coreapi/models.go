package coreapi

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns into DateOnly. NULL values zero the time and return nil so that
// *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. StartWeightKG is written once at profile
// creation and never updated — weekly report deltas are measured against it
// when no logged weight exists.
type user struct {
	ID                int        `json:"id" db:"id"`
	TelegramID        string     `json:"telegram_id" db:"telegram_id"`
	Age               int        `json:"age" db:"age"`
	Sex               string     `json:"sex" db:"sex"`
	HeightCM          float64    `json:"height_cm" db:"height_cm"`
	StartWeightKG     float64    `json:"start_weight_kg" db:"start_weight_kg"`
	TargetWeightKG    float64    `json:"target_weight_kg" db:"target_weight_kg"`
	WaistCM           *float64   `json:"waist_cm" db:"waist_cm"`
	HipsCM            *float64   `json:"hips_cm" db:"hips_cm"`
	ChestCM           *float64   `json:"chest_cm" db:"chest_cm"`
	ChronicConditions []string   `json:"chronic_conditions" db:"chronic_conditions"`
	ActivityLevel     string     `json:"activity_level" db:"activity_level"`
	CreatedAt         *time.Time `json:"created_at" db:"created_at"`
}

// dailyLog maps to daily_logs. One row per (user_id, date) — enforced by a
// UNIQUE constraint; writes go through ON CONFLICT upserts. Nullable metric
// fields use pointers so pgx can scan NULLs.
type dailyLog struct {
	ID            int      `json:"id" db:"id"`
	UserID        int      `json:"user_id" db:"user_id"`
	Date          DateOnly `json:"date" db:"date"`
	CaloriesIn    *float64 `json:"calories_in" db:"calories_in"`
	WeightKG      *float64 `json:"weight_kg" db:"weight_kg"`
	WaistCM       *float64 `json:"waist_cm" db:"waist_cm"`
	HipsCM        *float64 `json:"hips_cm" db:"hips_cm"`
	ChestCM       *float64 `json:"chest_cm" db:"chest_cm"`
	ActivityLevel *string  `json:"activity_level" db:"activity_level"`
}

// statusFlags is the sparse flag map stored as JSONB on weekly reports.
// Entries are only inserted when the underlying value exists, so absent
// metrics never show up as zeros.
type statusFlags map[string]any

// weeklyReport maps to weekly_reports. One row per (user_id, week_start).
type weeklyReport struct {
	ID          int         `json:"id" db:"id"`
	UserID      int         `json:"user_id" db:"user_id"`
	WeekStart   DateOnly    `json:"week_start" db:"week_start"`
	WeekEnd     DateOnly    `json:"week_end" db:"week_end"`
	SummaryText string      `json:"summary_text" db:"summary_text"`
	StatusFlags statusFlags `json:"status_flags" db:"status_flags"`
}

// menuMeal is a single slot in the weekly menu: a dish and its calorie share.
type menuMeal struct {
	Title        string `json:"title"`
	CaloriesKcal int    `json:"calories_kcal"`
}

// weekMenu maps ISO date strings to meal-slot names to meals. Stored as JSONB.
type weekMenu map[string]map[string]menuMeal

// menuPlan maps to menu_plans. One row per (user_id, week_start); the menu is
// generated once per week and reused on later requests.
type menuPlan struct {
	ID        int      `json:"id" db:"id"`
	UserID    int      `json:"user_id" db:"user_id"`
	WeekStart DateOnly `json:"week_start" db:"week_start"`
	Menu      weekMenu `json:"menu" db:"menu_json"`
}

/* ─── Request / Response types ───────────────────────────────────────── */

// profileInitRequest is the body for POST /profile/init. Optional body
// measurements use pointers so "not provided" is distinguishable from zero.
type profileInitRequest struct {
	TelegramID        string   `json:"telegram_id"`
	Age               int      `json:"age"`
	Sex               string   `json:"sex"`
	HeightCM          float64  `json:"height_cm"`
	WeightKG          float64  `json:"weight_kg"`
	TargetWeightKG    float64  `json:"target_weight_kg"`
	WaistCM           *float64 `json:"waist_cm"`
	HipsCM            *float64 `json:"hips_cm"`
	ChestCM           *float64 `json:"chest_cm"`
	ChronicConditions []string `json:"chronic_conditions"`
	ActivityLevel     string   `json:"activity_level"`
}

// profileInitResponse returns the freshly computed daily target. The medical
// warning is set when any chronic condition was reported.
type profileInitResponse struct {
	DailyCalorieTargetKcal int  `json:"daily_calorie_target_kcal"`
	MedicalWarning         bool `json:"medical_warning"`
}

// dailyIntakeRequest is the body for POST /log/daily-intake.
type dailyIntakeRequest struct {
	TelegramID string  `json:"telegram_id"`
	Date       string  `json:"date"`
	CaloriesIn float64 `json:"calories_in"`
}

// bodyLogRequest is the body for POST /log/body. All metrics optional —
// only the provided ones overwrite the day's log.
type bodyLogRequest struct {
	TelegramID    string   `json:"telegram_id"`
	Date          string   `json:"date"`
	WeightKG      *float64 `json:"weight_kg"`
	WaistCM       *float64 `json:"waist_cm"`
	HipsCM        *float64 `json:"hips_cm"`
	ChestCM       *float64 `json:"chest_cm"`
	ActivityLevel *string  `json:"activity_level"`
}

// progressSummary is the response for GET /progress/summary. Numeric fields
// are null when the user has never logged the corresponding metric.
type progressSummary struct {
	LastWeightKG        *float64 `json:"last_weight_kg"`
	LastWaistCM         *float64 `json:"last_waist_cm"`
	LastHipsCM          *float64 `json:"last_hips_cm"`
	LastChestCM         *float64 `json:"last_chest_cm"`
	AvgCaloriesLast7Day *float64 `json:"avg_calories_last_7_days"`
	Message             string   `json:"message"`
}

// menuPlanResponse is the response for GET /menu/week.
type menuPlanResponse struct {
	WeekStart DateOnly `json:"week_start"`
	WeekEnd   DateOnly `json:"week_end"`
	Menu      weekMenu `json:"menu"`
}

// weeklyReportResponse is the response for GET /report/weekly.
type weeklyReportResponse struct {
	WeekStart   DateOnly    `json:"week_start"`
	WeekEnd     DateOnly    `json:"week_end"`
	SummaryText string      `json:"summary_text"`
	StatusFlags statusFlags `json:"status_flags"`
}
