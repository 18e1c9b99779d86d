package lifespan

import "math"

// NeutralLongevityScore is returned when the lifespan is unusable.
const NeutralLongevityScore = 5.0

// LongevityScore maps the remaining share of the lifespan onto 1-10:
// 1 + 9 × (lifespan − mileage) / lifespan, clamped and rounded to one
// decimal.  A non-finite or non-positive lifespan yields 5.0; negative or
// non-finite mileage is treated as zero.
func LongevityScore(currentMileage, lifespan float64) float64 {
	if math.IsNaN(lifespan) || math.IsInf(lifespan, 0) || lifespan <= 0 {
		return NeutralLongevityScore
	}
	if math.IsNaN(currentMileage) || math.IsInf(currentMileage, 0) || currentMileage < 0 {
		currentMileage = 0
	}
	remaining := (lifespan - currentMileage) / lifespan
	score := math.Max(1, math.Min(10, 1+9*remaining))
	return math.Round(score*10) / 10
}
