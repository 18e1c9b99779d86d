// Package survival models the probability that a vehicle keeps running to
// future mileage milestones.  Failure distance follows a Weibull
// distribution whose scale is the adjusted lifespan and whose shape is
// derived from known issues, reliability and condition.
package survival

import "math"

// ConditionalSurvival returns the probability of covering additional more
// miles given the vehicle has already covered current miles:
//
//	S(x | c) = exp(-((c+x)/λ)^k) / exp(-(c/λ)^k) = exp((c/λ)^k − ((c+x)/λ)^k)
//
// The log-space form avoids underflow when c is far past λ.  The result is
// exactly 1 for additional <= 0.  Negative or non-finite current mileage is
// treated as zero; a non-positive scale or shape yields 0 for any positive
// distance.
func ConditionalSurvival(current, additional, scale, shape float64) float64 {
	if !(additional > 0) {
		return 1.0
	}
	if !(scale > 0) || !(shape > 0) || math.IsInf(scale, 0) {
		return 0
	}
	current = sanitizeMileage(current)
	exponent := math.Pow(current/scale, shape) - math.Pow((current+additional)/scale, shape)
	p := math.Exp(exponent)
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(1, p))
}

// Quantile returns the additional miles x at which S(x | current) = p, by
// inverting ConditionalSurvival:
//
//	x(p) = λ · ((c/λ)^k − ln p)^(1/k) − c
//
// p is clamped into (0, 1]; the result is never negative.  A non-finite
// result, which only happens at mileages far past λ, is reported as 0.
func Quantile(current, scale, shape, p float64) float64 {
	if !(scale > 0) || !(shape > 0) {
		return 0
	}
	if !(p > 0) {
		p = math.SmallestNonzeroFloat64
	}
	if p >= 1 {
		return 0
	}
	current = sanitizeMileage(current)
	x := scale*math.Pow(math.Pow(current/scale, shape)-math.Log(p), 1/shape) - current
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}

func sanitizeMileage(m float64) float64 {
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
		return 0
	}
	return m
}
