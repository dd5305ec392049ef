package coreapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// mealCatalog is the fixed rotation of reference dishes for generated menus.
// Order matters: the (day + slot) mod len rotation below depends on it.
var mealCatalog = []string{
	"oatmeal with berries",
	"buckwheat with chicken",
	"vegetable soup",
	"baked fish with vegetables",
	"cottage cheese with nuts",
	"pasta bolognese",
	"quinoa salad",
}

// mealSlots are the four daily meal slots, in serving order.
var mealSlots = []string{"breakfast", "lunch", "dinner", "snack"}

// generateWeekMenu builds a 7-day menu starting at weekStart. The daily
// target is split evenly across the four slots (integer division, so the
// plan never exceeds the target), and dishes rotate by (day + slot) mod
// catalog size to vary meals across both axes. Deterministic: the same
// (weekStart, dailyTarget) always yields an identical plan, which makes the
// cached menu_plans row reproducible.
func generateWeekMenu(weekStart time.Time, dailyTarget int) weekMenu {
	perMeal := dailyTarget / len(mealSlots)
	menu := make(weekMenu, 7)
	for day := 0; day < 7; day++ {
		date := weekStart.AddDate(0, 0, day)
		meals := make(map[string]menuMeal, len(mealSlots))
		for slot, slotName := range mealSlots {
			meals[slotName] = menuMeal{
				Title:        mealCatalog[(day+slot)%len(mealCatalog)],
				CaloriesKcal: perMeal,
			}
		}
		menu[date.Format("2006-01-02")] = meals
	}
	return menu
}

// currentMonday returns the Monday of the week containing t, at midnight UTC.
// Menu plans are keyed by this anchor. Uses AddDate to safely handle
// month/year boundaries.
func currentMonday(t time.Time) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	weekday := int(t.Weekday()) // 0=Sun
	if weekday == 0 {
		weekday = 7 // treat Sunday as day 7 so Mon=1..Sun=7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

// getWeekMenu returns the menu plan for the current Monday-anchored week,
// generating and caching it on first request. GET /menu/week?telegram_id=...
//
// The upsert keeps concurrent first requests from creating two rows for the
// same (user, week_start); because generation is deterministic, both writers
// produce the same plan and the second write is a harmless no-op overwrite.
func (h *Handler) getWeekMenu(c *gin.Context) {
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

	weekStart := currentMonday(time.Now())
	weekEnd := weekStart.AddDate(0, 0, 6)

	plan, err := queryOne[menuPlan](h.db, c,
		"SELECT * FROM menu_plans WHERE user_id = @userID AND week_start = @weekStart",
		pgx.NamedArgs{"userID": u.ID, "weekStart": weekStart.Format("2006-01-02")})
	if errors.Is(err, pgx.ErrNoRows) {
		// Menu targets come from the starting weight, so a plan never
		// shifts mid-week when the user logs a new weight.
		target := calculateDailyCalories(u.StartWeightKG, u.HeightCM, u.Age,
			u.Sex, u.ActivityLevel, u.TargetWeightKG)
		menu := generateWeekMenu(weekStart, target.DailyTarget)

		plan, err = queryOne[menuPlan](h.db, c,
			`INSERT INTO menu_plans (user_id, week_start, menu_json)
			 VALUES (@userID, @weekStart, @menu)
			 ON CONFLICT (user_id, week_start) DO UPDATE SET menu_json = EXCLUDED.menu_json
			 RETURNING *`,
			pgx.NamedArgs{
				"userID":    u.ID,
				"weekStart": weekStart.Format("2006-01-02"),
				"menu":      menu,
			})
	}
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch menu plan")
		return
	}

	c.JSON(http.StatusOK, menuPlanResponse{
		WeekStart: plan.WeekStart,
		WeekEnd:   DateOnly{weekEnd},
		Menu:      plan.Menu,
	})
}
