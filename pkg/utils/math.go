package utils

import "math"

// Round rounds x to the given number of decimal places, halves away from zero.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow10(places)
	return math.Round(x*p) / p
}
