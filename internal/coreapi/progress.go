package coreapi

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// calorieDeltaBand is the ±kcal band around the daily target inside which
// average intake counts as "on target". Shared with the weekly report.
const calorieDeltaBand = 100

// Coaching messages for the progress summary.
const (
	msgNoData   = "Not much data from the past few days yet — keep logging and check back soon."
	msgOnTarget = "You're staying close to your target. Keep it up!"
	msgOver     = "Intake is running over target — try trimming your portions a little."
	msgUnder    = "You're a bit under your calorie target — keep an eye on how you feel."
)

// round1 rounds to one decimal place. All aggregate metrics in summaries and
// reports are reported at this precision.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// getProgressSummary returns the last known measurements, the 7-day average
// intake, and a coaching message. GET /progress/summary?telegram_id=...
//
// Logs are read from the trailing window [today-6, today]. When that window
// is empty the single most recent log on file is used instead, so inactive
// users still see their last known numbers rather than an all-null summary.
func (h *Handler) getProgressSummary(c *gin.Context) {
	telegramID := c.Query("telegram_id")
	if telegramID == "" {
		apiError(c, http.StatusBadRequest, "telegram_id query param is required")
		return
	}

	u, err := h.getUserByTelegramID(c, telegramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "user not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch user")
		}
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	windowStart := today.AddDate(0, 0, -6)

	logs, err := queryMany[dailyLog](h.db, c,
		`SELECT * FROM daily_logs
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{
			"userID": u.ID,
			"start":  windowStart.Format("2006-01-02"),
			"end":    today.Format("2006-01-02"),
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch logs")
		return
	}

	// lastLog carries the measurements shown in the summary. Empty window:
	// fall back to the most recent log ever, however old it is.
	var lastLog *dailyLog
	if len(logs) > 0 {
		lastLog = &logs[len(logs)-1]
	} else {
		latest, err := queryOne[dailyLog](h.db, c,
			`SELECT * FROM daily_logs
			 WHERE user_id = @userID
			 ORDER BY date DESC LIMIT 1`,
			pgx.NamedArgs{"userID": u.ID})
		if err == nil {
			lastLog = &latest
		} else if !errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusInternalServerError, "failed to fetch logs")
			return
		}
	}

	// Average only over entries that actually logged calories.
	var avgCalories *float64
	var sum float64
	var count int
	for _, l := range logs {
		if l.CaloriesIn != nil {
			sum += *l.CaloriesIn
			count++
		}
	}
	if count > 0 {
		avg := round1(sum / float64(count))
		avgCalories = &avg
	}

	// Weight for the target calculation: last logged weight if present,
	// else the profile's starting weight.
	weightForCalc := u.StartWeightKG
	if lastLog != nil && lastLog.WeightKG != nil {
		weightForCalc = *lastLog.WeightKG
	}
	target := calculateDailyCalories(weightForCalc, u.HeightCM, u.Age,
		u.Sex, u.ActivityLevel, u.TargetWeightKG)

	summary := progressSummary{
		AvgCaloriesLast7Day: avgCalories,
		Message:             progressMessage(avgCalories, target.DailyTarget),
	}
	if lastLog != nil {
		summary.LastWeightKG = lastLog.WeightKG
		summary.LastWaistCM = lastLog.WaistCM
		summary.LastHipsCM = lastLog.HipsCM
		summary.LastChestCM = lastLog.ChestCM
	}

	c.JSON(http.StatusOK, summary)
}

// progressMessage picks the coaching line from the average-vs-target delta.
func progressMessage(avgCalories *float64, dailyTarget int) string {
	if avgCalories == nil {
		return msgNoData
	}
	delta := *avgCalories - float64(dailyTarget)
	switch {
	case math.Abs(delta) < calorieDeltaBand:
		return msgOnTarget
	case delta > 0:
		return msgOver
	default:
		return msgUnder
	}
}
