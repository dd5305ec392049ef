package coreapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// initProfile creates or refreshes a user profile and returns the computed
// daily calorie target. POST /profile/init.
// Upserts by telegram_id: the starting weight is written only on first
// insert and kept on later updates, so progress deltas stay anchored to the
// original intake weight.
func (h *Handler) initProfile(c *gin.Context) {
	var body profileInitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.TelegramID == "" {
		apiError(c, http.StatusBadRequest, "telegram_id is required")
		return
	}
	// Reject malformed numeric input before any computation; the calculator
	// itself is total over its domain but garbage in means garbage targets.
	if body.Age < 0 {
		apiError(c, http.StatusBadRequest, "age must not be negative")
		return
	}
	if body.HeightCM <= 0 || body.WeightKG <= 0 || body.TargetWeightKG <= 0 {
		apiError(c, http.StatusBadRequest, "height_cm, weight_kg and target_weight_kg must be positive")
		return
	}

	// chronic_conditions is stored as JSONB; normalize empty slice to NULL
	// like the original intake did with falsy lists.
	var conditions any
	if len(body.ChronicConditions) > 0 {
		conditions = body.ChronicConditions
	}

	// Atomic upsert on the telegram_id unique key — two concurrent intakes
	// for the same user can never produce two rows.
	_, err := queryOne[user](h.db, c,
		`INSERT INTO users (telegram_id, age, sex, height_cm, start_weight_kg, target_weight_kg,
		                    waist_cm, hips_cm, chest_cm, chronic_conditions, activity_level)
		 VALUES (@telegramID, @age, @sex, @heightCM, @weightKG, @targetWeightKG,
		         @waistCM, @hipsCM, @chestCM, @conditions, @activityLevel)
		 ON CONFLICT (telegram_id) DO UPDATE SET
			age                = EXCLUDED.age,
			sex                = EXCLUDED.sex,
			height_cm          = EXCLUDED.height_cm,
			target_weight_kg   = EXCLUDED.target_weight_kg,
			waist_cm           = EXCLUDED.waist_cm,
			hips_cm            = EXCLUDED.hips_cm,
			chest_cm           = EXCLUDED.chest_cm,
			chronic_conditions = EXCLUDED.chronic_conditions,
			activity_level     = EXCLUDED.activity_level
		 RETURNING *`,
		pgx.NamedArgs{
			"telegramID": body.TelegramID, "age": body.Age, "sex": body.Sex,
			"heightCM": body.HeightCM, "weightKG": body.WeightKG,
			"targetWeightKG": body.TargetWeightKG, "waistCM": body.WaistCM,
			"hipsCM": body.HipsCM, "chestCM": body.ChestCM,
			"conditions": conditions, "activityLevel": body.ActivityLevel,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to save profile")
		return
	}

	// Target is computed from the submitted weight, not the stored starting
	// weight — a returning user gets a target for their current metrics.
	target := calculateDailyCalories(body.WeightKG, body.HeightCM, body.Age,
		body.Sex, body.ActivityLevel, body.TargetWeightKG)

	c.JSON(http.StatusOK, profileInitResponse{
		DailyCalorieTargetKcal: target.DailyTarget,
		MedicalWarning:         len(body.ChronicConditions) > 0,
	})
}
