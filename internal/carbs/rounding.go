// Package carbs holds the pure rules of carbohydrate tracking: rounding and
// formatting of gram amounts, the validation gate for new entries, the
// aggregation engine and the threshold evaluator.
package carbs

import "math"

// RoundForStorage rounds half away from zero at the second decimal.
func RoundForStorage(x float64) float64 {
	r := math.Round(x*100) / 100
	if r == 0 {
		// collapse -0 so it never formats as "-0g"
		return 0
	}
	return r
}

// ValidateAmount is the gate every gram amount passes before it is stored.
// It rejects missing, zero and negative input as well as input that rounds to zero.
func ValidateAmount(amount *float64) (float64, bool) {
	if amount == nil || math.IsNaN(*amount) || math.IsInf(*amount, 0) || *amount <= 0 {
		return 0, false
	}
	rounded := RoundForStorage(*amount)
	if rounded <= 0 {
		return 0, false
	}
	return rounded, true
}

// FoodAmount converts a per-100g carbohydrate value and the eaten weight into grams.
// The result is intentionally unrounded; ValidateAmount rounds it once.
func FoodAmount(carbsPer100g, amountEaten float64) float64 {
	return carbsPer100g / 100 * amountEaten
}
