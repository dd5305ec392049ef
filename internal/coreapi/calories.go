package coreapi

import "strings"

// activityMultipliers maps activity level strings to their TDEE multiplier.
// Unknown levels fall back to the lowest multiplier rather than failing —
// a conservative target beats a 500 for a typo'd level.
var activityMultipliers = map[string]float64{
	"low":       1.2,
	"moderate":  1.55,
	"high":      1.725,
	"very_high": 1.9,
}

const defaultActivityMultiplier = 1.2

// calorieTarget is the result of the daily calorie calculation. BMR and TDEE
// stay as floats; DailyTarget is the goal-adjusted TDEE truncated to a whole
// kcal (truncated, not rounded — the menu generator splits it by integer
// division and must never overshoot).
type calorieTarget struct {
	BMR         float64
	TDEE        float64
	DailyTarget int
}

// bmrMifflinStJeor computes basal metabolic rate from body metrics.
// The sex offset is +5 for male, -161 for female, 0 for anything else —
// unrecognized values degrade instead of erroring.
func bmrMifflinStJeor(weightKG, heightCM float64, age int, sex string) float64 {
	var offset float64
	switch strings.ToLower(sex) {
	case "male", "m":
		offset = 5
	case "female", "f":
		offset = -161
	}
	return 10*weightKG + 6.25*heightCM - 5*float64(age) + offset
}

// activityMultiplier returns the TDEE multiplier for an activity level,
// defaulting to the lowest multiplier for unrecognized input.
func activityMultiplier(level string) float64 {
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	return defaultActivityMultiplier
}

// goalAdjustment scales TDEE toward the user's goal: a 15% deficit when
// losing, a 10% surplus when gaining, unchanged when maintaining.
func goalAdjustment(tdee, currentWeightKG, targetWeightKG float64) float64 {
	if targetWeightKG < currentWeightKG {
		return tdee * 0.85
	}
	if targetWeightKG > currentWeightKG {
		return tdee * 1.1
	}
	return tdee
}

// calculateDailyCalories derives the daily calorie target from body metrics,
// activity level, and goal weight. Pure function with no error conditions.
func calculateDailyCalories(weightKG, heightCM float64, age int, sex, activityLevel string, targetWeightKG float64) calorieTarget {
	bmr := bmrMifflinStJeor(weightKG, heightCM, age, sex)
	tdee := bmr * activityMultiplier(activityLevel)
	adjusted := goalAdjustment(tdee, weightKG, targetWeightKG)
	return calorieTarget{BMR: bmr, TDEE: tdee, DailyTarget: int(adjusted)}
}
