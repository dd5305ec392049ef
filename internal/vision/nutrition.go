package vision

import "math"

// per100g holds macros per 100 grams of a dish.
type per100g struct {
	CaloriesKcal float64
	ProteinsG    float64
	FatsG        float64
	CarbsG       float64
}

// nutritionTable is the static per-100g lookup for every label the
// classifier can emit.
var nutritionTable = map[string]per100g{
	"cucumber tomato salad":  {CaloriesKcal: 35, ProteinsG: 1.0, FatsG: 2.0, CarbsG: 3.5},
	"buckwheat with chicken": {CaloriesKcal: 120, ProteinsG: 9.0, FatsG: 3.5, CarbsG: 14.0},
	"pilaf":                  {CaloriesKcal: 150, ProteinsG: 5.0, FatsG: 6.0, CarbsG: 19.0},
}

// defaultPortionGrams is the assumed serving size. Portion estimation from
// the image itself is a stub for now.
const defaultPortionGrams = 200

// mealEstimate is the full response for one analyzed photo.
type mealEstimate struct {
	Label           string  `json:"label"`
	Confidence      float64 `json:"confidence"`
	PortionGramsEst int     `json:"portion_grams_est"`
	CaloriesKcal    float64 `json:"calories_kcal"`
	ProteinsG       float64 `json:"proteins_g"`
	FatsG           float64 `json:"fats_g"`
	CarbsG          float64 `json:"carbs_g"`
}

// calcMacros scales the per-100g entry for the label to the portion size,
// one decimal place. Labels missing from the table use the default dish so
// the caller always gets numbers.
func calcMacros(label string, portionGrams int) per100g {
	nutrition, ok := nutritionTable[label]
	if !ok {
		nutrition = nutritionTable[defaultLabel]
	}
	factor := float64(portionGrams) / 100
	return per100g{
		CaloriesKcal: round1(nutrition.CaloriesKcal * factor),
		ProteinsG:    round1(nutrition.ProteinsG * factor),
		FatsG:        round1(nutrition.FatsG * factor),
		CarbsG:       round1(nutrition.CarbsG * factor),
	}
}

// estimateMeal runs the classify-then-scale pipeline on raw image bytes.
func estimateMeal(imageBytes []byte) mealEstimate {
	label, confidence := classify(imageBytes)
	macros := calcMacros(label, defaultPortionGrams)
	return mealEstimate{
		Label:           label,
		Confidence:      confidence,
		PortionGramsEst: defaultPortionGrams,
		CaloriesKcal:    macros.CaloriesKcal,
		ProteinsG:       macros.ProteinsG,
		FatsG:           macros.FatsG,
		CarbsG:          macros.CarbsG,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
