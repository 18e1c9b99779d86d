package pricing

import "math"

// DealQuality labels an asking price relative to the fair range.
type DealQuality string

const (
	DealGreat      DealQuality = "GREAT"
	DealGood       DealQuality = "GOOD"
	DealFair       DealQuality = "FAIR"
	DealHigh       DealQuality = "HIGH"
	DealOverpriced DealQuality = "OVERPRICED"
	DealUnknown    DealQuality = "UNKNOWN"
)

// NeutralPriceScore is returned for unusable inputs.
const NeutralPriceScore = 5.0

const (
	// fullDiscount is the discount below fair-low that earns a 10.
	fullDiscount = 0.20
	// fullPremium is the premium above fair-high that drops to a 1.
	fullPremium = 0.30

	greatShare = 0.90
	highShare  = 1.15
)

// Score is the graded asking price.
type Score struct {
	Score            float64     `json:"score"`
	DealQuality      DealQuality `json:"deal_quality"`
	PercentOfFairLow float64     `json:"percent_of_fair_low"`
}

// CalculatePriceScore maps asking onto 1-10 against [fairLow, fairHigh]:
//
//	below fair-low:  7 + 3 · min(1, discount / 0.20)
//	within range:    7 − 3 · (asking − low) / (high − low)
//	above fair-high: 4 − 3 · min(1, premium / 0.30)
//
// Non-finite or non-positive inputs yield 5.0 and UNKNOWN.  Swapped bounds
// are swapped back.
func CalculatePriceScore(asking, fairLow, fairHigh float64) Score {
	if !finitePositive(asking) || !finitePositive(fairLow) || !finitePositive(fairHigh) {
		return Score{Score: NeutralPriceScore, DealQuality: DealUnknown}
	}
	if fairLow > fairHigh {
		fairLow, fairHigh = fairHigh, fairLow
	}

	var s float64
	switch {
	case asking < fairLow:
		discount := (fairLow - asking) / fairLow
		s = 7 + 3*math.Min(1, discount/fullDiscount)
	case asking <= fairHigh:
		if fairHigh == fairLow {
			s = 5.5
		} else {
			s = 7 - 3*(asking-fairLow)/(fairHigh-fairLow)
		}
	default:
		premium := (asking - fairHigh) / fairHigh
		s = 4 - 3*math.Min(1, premium/fullPremium)
	}

	return Score{
		Score:            math.Round(s*10) / 10,
		DealQuality:      dealQuality(asking, fairLow, fairHigh),
		PercentOfFairLow: math.Round(asking/fairLow*1000) / 10,
	}
}

func dealQuality(asking, fairLow, fairHigh float64) DealQuality {
	switch {
	case asking < greatShare*fairLow:
		return DealGreat
	case asking < fairLow:
		return DealGood
	case asking <= fairHigh:
		return DealFair
	case asking <= highShare*fairHigh:
		return DealHigh
	default:
		return DealOverpriced
	}
}

// PriceForScore inverts CalculatePriceScore: it returns the highest asking
// price whose score is at least score.  ok is false when score lies outside
// [1,10] or the bounds are unusable.
func PriceForScore(score, fairLow, fairHigh float64) (price float64, ok bool) {
	if math.IsNaN(score) || score < 1 || score > 10 {
		return 0, false
	}
	if !finitePositive(fairLow) || !finitePositive(fairHigh) {
		return 0, false
	}
	if fairLow > fairHigh {
		fairLow, fairHigh = fairHigh, fairLow
	}

	switch {
	case score > 7:
		discount := (score - 7) / 3 * fullDiscount
		return fairLow * (1 - discount), true
	case score >= 4:
		return fairLow + (7-score)/3*(fairHigh-fairLow), true
	default:
		premium := (4 - score) / 3 * fullPremium
		return fairHigh * (1 + premium), true
	}
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
