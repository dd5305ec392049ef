package coreapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// logDailyIntake records the calories eaten on a given date.
// POST /log/daily-intake. Writing the same date twice updates the existing
// row in place — the UNIQUE(user_id, date) constraint plus ON CONFLICT make
// the upsert atomic under concurrent writers.
func (h *Handler) logDailyIntake(c *gin.Context) {
	var body dailyIntakeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if body.CaloriesIn < 0 {
		apiError(c, http.StatusBadRequest, "calories_in must not be negative")
		return
	}

	u, err := h.getUserByTelegramID(c, body.TelegramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "user not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch user")
		}
		return
	}

	_, err = h.db.Exec(c,
		`INSERT INTO daily_logs (user_id, date, calories_in)
		 VALUES (@userID, @date, @caloriesIn)
		 ON CONFLICT (user_id, date) DO UPDATE SET calories_in = EXCLUDED.calories_in`,
		pgx.NamedArgs{"userID": u.ID, "date": body.Date, "caloriesIn": body.CaloriesIn})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to save intake log")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// logBodyMetrics records body measurements for a given date.
// POST /log/body. Only the metrics present in the request overwrite the
// day's log; omitted fields keep whatever was logged earlier that day
// (COALESCE against the existing row, same idea as a partial UPDATE).
func (h *Handler) logBodyMetrics(c *gin.Context) {
	var body bodyLogRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	for _, v := range []*float64{body.WeightKG, body.WaistCM, body.HipsCM, body.ChestCM} {
		if v != nil && *v < 0 {
			apiError(c, http.StatusBadRequest, "measurements must not be negative")
			return
		}
	}

	u, err := h.getUserByTelegramID(c, body.TelegramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "user not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch user")
		}
		return
	}

	_, err = h.db.Exec(c,
		`INSERT INTO daily_logs (user_id, date, weight_kg, waist_cm, hips_cm, chest_cm, activity_level)
		 VALUES (@userID, @date, @weightKG, @waistCM, @hipsCM, @chestCM, @activityLevel)
		 ON CONFLICT (user_id, date) DO UPDATE SET
			weight_kg      = COALESCE(EXCLUDED.weight_kg, daily_logs.weight_kg),
			waist_cm       = COALESCE(EXCLUDED.waist_cm, daily_logs.waist_cm),
			hips_cm        = COALESCE(EXCLUDED.hips_cm, daily_logs.hips_cm),
			chest_cm       = COALESCE(EXCLUDED.chest_cm, daily_logs.chest_cm),
			activity_level = COALESCE(EXCLUDED.activity_level, daily_logs.activity_level)`,
		pgx.NamedArgs{
			"userID": u.ID, "date": body.Date,
			"weightKG": body.WeightKG, "waistCM": body.WaistCM,
			"hipsCM": body.HipsCM, "chestCM": body.ChestCM,
			"activityLevel": body.ActivityLevel,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to save body log")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
