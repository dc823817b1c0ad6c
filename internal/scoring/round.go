package scoring

import "math"

// Round rounds x to the given number of decimal places, half away from zero.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Alignment is the composite 0-100 score that rewards low resistance.
// Halves round away from zero.
func Alignment(confidence, abundance, clarity, gratitude, resistance int) int {
	sum := confidence + abundance + clarity + gratitude + (100 - resistance)
	return int(math.Round(float64(sum) / 5))
}
