package coreapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// lowActivityThreshold is the fraction of logged days marked "low" above
// which the low-activity warning fires.
const lowActivityThreshold = 0.6

// reportContent is the computed part of a weekly report, before persistence.
type reportContent struct {
	SummaryText string
	StatusFlags statusFlags
}

// calcChange returns last − first at one decimal, or nil for an empty
// series. With a single sample first == last, so the change is 0 — that is
// intentional: one data point means "no measured change", not "no data".
func calcChange(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	change := round1(values[len(values)-1] - values[0])
	return &change
}

// buildWeeklyReport computes the aggregates, status flags, and summary text
// for one user's week of logs. Pure function — fetching and persisting are
// the caller's job, which keeps the whole computation testable without a
// database.
func buildWeeklyReport(u user, logs []dailyLog) reportContent {
	var calorieValues, weightValues, waistValues []float64
	var activityLevels []string
	for _, l := range logs {
		if l.CaloriesIn != nil {
			calorieValues = append(calorieValues, *l.CaloriesIn)
		}
		if l.WeightKG != nil {
			weightValues = append(weightValues, *l.WeightKG)
		}
		if l.WaistCM != nil {
			waistValues = append(waistValues, *l.WaistCM)
		}
		if l.ActivityLevel != nil && *l.ActivityLevel != "" {
			activityLevels = append(activityLevels, *l.ActivityLevel)
		}
	}

	var avgCalories *float64
	if len(calorieValues) > 0 {
		var sum float64
		for _, v := range calorieValues {
			sum += v
		}
		avg := round1(sum / float64(len(calorieValues)))
		avgCalories = &avg
	}

	// Target uses the latest logged weight, falling back to the starting
	// weight for weeks without a measurement.
	latestWeight := u.StartWeightKG
	if len(weightValues) > 0 {
		latestWeight = weightValues[len(weightValues)-1]
	}
	target := calculateDailyCalories(latestWeight, u.HeightCM, u.Age,
		u.Sex, u.ActivityLevel, u.TargetWeightKG).DailyTarget

	var lowActivityRatio float64
	if len(activityLevels) > 0 {
		var low int
		for _, level := range activityLevels {
			if level == "low" {
				low++
			}
		}
		lowActivityRatio = float64(low) / float64(len(activityLevels))
	}

	// Flags are sparse: only metrics that exist this week get an entry.
	flags := statusFlags{}
	if avgCalories != nil {
		flags["avg_calories"] = *avgCalories
		flags["calorie_delta"] = round1(*avgCalories - float64(target))
	}
	weightChange := calcChange(weightValues)
	if weightChange != nil {
		flags["weight_change"] = *weightChange
	}
	waistChange := calcChange(waistValues)
	if waistChange != nil {
		flags["waist_change"] = *waistChange
	}
	lowActivity := lowActivityRatio >= lowActivityThreshold
	if lowActivity {
		flags["low_activity"] = true
	}

	parts := []string{
		"Your weekly report is ready!",
		fmt.Sprintf("Calorie target: ~%d kcal/day.", target),
	}
	if avgCalories != nil {
		parts = append(parts, fmt.Sprintf("Average intake: %.1f kcal.", *avgCalories))
		delta := *avgCalories - float64(target)
		if math.Abs(delta) < calorieDeltaBand {
			parts = append(parts, "You're staying right around your target — great work!")
		} else if delta > 0 {
			parts = append(parts, "Intake ran over target this week — try cutting portions a little.")
		} else {
			parts = append(parts, "Intake was a bit under target — keep an eye on how you feel.")
		}
	}
	if weightChange != nil {
		parts = append(parts, fmt.Sprintf("Weight change: %+.1f kg.", *weightChange))
	}
	if waistChange != nil {
		parts = append(parts, fmt.Sprintf("Waist change: %+.1f cm.", *waistChange))
	}
	if lowActivity {
		parts = append(parts, "Activity was low this week — try adding walks or a light workout.")
	}

	return reportContent{SummaryText: strings.Join(parts, " "), StatusFlags: flags}
}

// generateWeeklyReport fetches the user's logs for [weekStart, weekEnd],
// builds the report, and persists it. The ON CONFLICT upsert on
// (user_id, week_start) means regenerating a week can never produce a second
// row, even under concurrent callers — deciding whether to regenerate at all
// is the scheduler's job.
func generateWeeklyReport(ctx context.Context, db *pgxpool.Pool, u user, weekStart, weekEnd time.Time) (weeklyReport, error) {
	logs, err := queryMany[dailyLog](db, ctx,
		`SELECT * FROM daily_logs
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{
			"userID": u.ID,
			"start":  weekStart.Format("2006-01-02"),
			"end":    weekEnd.Format("2006-01-02"),
		})
	if err != nil {
		return weeklyReport{}, fmt.Errorf("fetch logs: %w", err)
	}

	content := buildWeeklyReport(u, logs)

	report, err := queryOne[weeklyReport](db, ctx,
		`INSERT INTO weekly_reports (user_id, week_start, week_end, summary_text, status_flags)
		 VALUES (@userID, @weekStart, @weekEnd, @summaryText, @statusFlags)
		 ON CONFLICT (user_id, week_start) DO UPDATE SET
			week_end     = EXCLUDED.week_end,
			summary_text = EXCLUDED.summary_text,
			status_flags = EXCLUDED.status_flags
		 RETURNING *`,
		pgx.NamedArgs{
			"userID":      u.ID,
			"weekStart":   weekStart.Format("2006-01-02"),
			"weekEnd":     weekEnd.Format("2006-01-02"),
			"summaryText": content.SummaryText,
			"statusFlags": content.StatusFlags,
		})
	if err != nil {
		return weeklyReport{}, fmt.Errorf("save report: %w", err)
	}
	return report, nil
}

// emptyReportResponse is returned when no report exists yet (or the user is
// unknown) so the bot always has something to show.
func emptyReportResponse() weeklyReportResponse {
	weekStart := currentMonday(time.Now())
	return weeklyReportResponse{
		WeekStart:   DateOnly{weekStart},
		WeekEnd:     DateOnly{weekStart.AddDate(0, 0, 6)},
		SummaryText: "No data for this week yet.",
		StatusFlags: statusFlags{},
	}
}

// getWeeklyReport returns the user's most recent weekly report, or an empty
// placeholder when none exists. GET /report/weekly?telegram_id=...
// An unknown user also gets the placeholder — the bot surfaces this endpoint
// before profile intake is guaranteed to have happened.
func (h *Handler) getWeeklyReport(c *gin.Context) {
	telegramID := c.Query("telegram_id")
	if telegramID == "" {
		apiError(c, http.StatusBadRequest, "telegram_id query param is required")
		return
	}

	u, err := h.getUserByTelegramID(c, telegramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusOK, emptyReportResponse())
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch user")
		}
		return
	}

	report, err := queryOne[weeklyReport](h.db, c,
		`SELECT * FROM weekly_reports
		 WHERE user_id = @userID
		 ORDER BY week_start DESC LIMIT 1`,
		pgx.NamedArgs{"userID": u.ID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusOK, emptyReportResponse())
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch report")
		}
		return
	}

	c.JSON(http.StatusOK, weeklyReportResponse{
		WeekStart:   report.WeekStart,
		WeekEnd:     report.WeekEnd,
		SummaryText: report.SummaryText,
		StatusFlags: report.StatusFlags,
	})
}
