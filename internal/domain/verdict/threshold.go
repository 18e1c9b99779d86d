package verdict

import (
	"fmt"
	"math"

	"github.com/turtacn/carverdict/internal/domain/pricing"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

// PriceThresholds are the asking prices at which the verdict would become
// BUY or MAYBE.  A nil threshold means no price achieves it, or the scores
// achieve it at any price.
type PriceThresholds struct {
	BuyThreshold   *float64 `json:"buy_threshold"`
	MaybeThreshold *float64 `json:"maybe_threshold"`
	CurrentVerdict Verdict  `json:"current_verdict"`
	Impact         string   `json:"impact"`
}

// thresholdOutcome explains a single solved threshold.
type thresholdOutcome int

const (
	outcomePrice thresholdOutcome = iota
	outcomeUnreachable
	outcomeAnyPrice
)

// SolveThresholds holds every sub-score except price value fixed and solves
// for the asking price that lifts the overall score to the BUY and MAYBE
// thresholds:
//
//	requiredPriceScore = (target + penalty − scoreWithoutPrice) / priceWeight
//
// then inverts the price-score mapping over [fairLow, fairHigh].  Prices are
// rounded down to $100.  A required score outside [1,10] yields nil, and any
// critical red flag yields nil for both.  asking may be zero when unknown.
func (s *Scorer) SolveThresholds(in Scores, flags []vehicle.RedFlag, fairLow, fairHigh, asking float64) PriceThresholds {
	current := s.Score(in, flags).Recommendation.Verdict
	out := PriceThresholds{CurrentVerdict: current}

	if HasCritical(flags) {
		out.Impact = "No asking price offsets a critical red flag; the verdict stays PASS at any price."
		return out
	}

	parts := s.resolve(in)
	penalty := RedFlagPenalty(flags)

	buy, buyOutcome := solve(s.thresholds.Buy, penalty, parts, fairLow, fairHigh)
	maybe, maybeOutcome := solve(s.thresholds.Maybe, penalty, parts, fairLow, fairHigh)
	out.BuyThreshold = buy
	out.MaybeThreshold = maybe
	out.Impact = impact(current, asking, buy, buyOutcome, maybe, maybeOutcome)
	return out
}

func solve(target, penalty float64, parts components, fairLow, fairHigh float64) (*float64, thresholdOutcome) {
	required := (target + penalty - parts.withoutPrice) / parts.weights.Price
	switch {
	case math.IsNaN(required) || required > 10:
		return nil, outcomeUnreachable
	case required < 1:
		return nil, outcomeAnyPrice
	}
	price, ok := pricing.PriceForScore(required, fairLow, fairHigh)
	if !ok {
		return nil, outcomeUnreachable
	}
	rounded := math.Floor(price/100+1e-9) * 100
	return &rounded, outcomePrice
}

func impact(current Verdict, asking float64, buy *float64, buyOutcome thresholdOutcome, maybe *float64, maybeOutcome thresholdOutcome) string {
	switch current {
	case VerdictBuy:
		if buy != nil {
			return fmt.Sprintf("Already a BUY; it stays a BUY up to %s.", dollars(*buy))
		}
		return "Already a BUY at any reasonable price."
	case VerdictMaybe:
		if buy != nil {
			return "Currently a MAYBE. " + negotiate(asking, *buy, "BUY")
		}
		return "Currently a MAYBE; no price reaches BUY because the other scores are too low."
	}

	switch {
	case buy != nil:
		msg := "Currently a PASS. " + negotiate(asking, *buy, "BUY")
		if maybe != nil {
			msg += fmt.Sprintf(" At %s or less it becomes a MAYBE.", dollars(*maybe))
		}
		return msg
	case maybe != nil:
		return "Currently a PASS; no price reaches BUY. " + negotiate(asking, *maybe, "MAYBE")
	case buyOutcome == outcomeAnyPrice || maybeOutcome == outcomeAnyPrice:
		return "Currently a PASS because of red flags; price alone does not change the verdict."
	default:
		return "Currently a PASS; no asking price lifts the score to MAYBE."
	}
}

func negotiate(asking, target float64, verdict string) string {
	if asking > 0 && asking > target {
		delta := asking - target
		return fmt.Sprintf("Negotiating down %s (%.0f%%) to %s would make it a %s.",
			dollars(delta), delta/asking*100, dollars(target), verdict)
	}
	return fmt.Sprintf("At %s or less it becomes a %s.", dollars(target), verdict)
}

func dollars(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + "$" + s
}
