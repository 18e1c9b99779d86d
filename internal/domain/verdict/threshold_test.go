package verdict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/carverdict/internal/domain/pricing"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

func TestSolveThresholds_CriticalFlag(t *testing.T) {
	flags := []vehicle.RedFlag{{Severity: vehicle.FlagCritical, Description: "flood damage"}}
	got := NewScorer().SolveThresholds(
		Scores{Reliability: f(9), Longevity: f(9), PriceValue: f(9), Safety: f(9)},
		flags, 10000, 12000, 9000)

	assert.Nil(t, got.BuyThreshold)
	assert.Nil(t, got.MaybeThreshold)
	assert.Equal(t, VerdictPass, got.CurrentVerdict)
	assert.Contains(t, got.Impact, "critical red flag")
}

func TestSolveThresholds_MaybeToBuy(t *testing.T) {
	s := NewScorer()
	asking := 12500.0
	ps := pricing.CalculatePriceScore(asking, 10000, 12000)
	got := s.SolveThresholds(Scores{Reliability: f(8), Longevity: f(8), PriceValue: f(ps.Score)}, nil, 10000, 12000, asking)

	assert.Equal(t, VerdictMaybe, got.CurrentVerdict)
	require.NotNil(t, got.BuyThreshold)
	assert.Equal(t, 11600.0, *got.BuyThreshold)
	// MAYBE is met at any price.
	assert.Nil(t, got.MaybeThreshold)
	assert.Equal(t, "Currently a MAYBE. Negotiating down $900 (7%) to $11,600 would make it a BUY.", got.Impact)
}

func TestSolveThresholds_BuyThresholdIsConsistent(t *testing.T) {
	s := NewScorer()
	in := Scores{Reliability: f(8), Longevity: f(8)}
	got := s.SolveThresholds(in, nil, 10000, 12000, 0)
	require.NotNil(t, got.BuyThreshold)

	// Paying the threshold earns a BUY.
	ps := pricing.CalculatePriceScore(*got.BuyThreshold, 10000, 12000)
	in.PriceValue = f(ps.Score)
	assert.Equal(t, VerdictBuy, s.Score(in, nil).Recommendation.Verdict)
}

func TestSolveThresholds_PenaltyRaisesBar(t *testing.T) {
	flags := []vehicle.RedFlag{{Severity: vehicle.FlagMedium}}
	got := NewScorer().SolveThresholds(Scores{Reliability: f(8), Longevity: f(8)}, flags, 10000, 12000, 0)
	require.NotNil(t, got.BuyThreshold)
	assert.Equal(t, 10400.0, *got.BuyThreshold)
}

func TestSolveThresholds_AlreadyBuy(t *testing.T) {
	ps := pricing.CalculatePriceScore(9000, 10000, 12000)
	got := NewScorer().SolveThresholds(Scores{Reliability: f(9), Longevity: f(9), PriceValue: f(ps.Score)}, nil, 10000, 12000, 9000)

	assert.Equal(t, VerdictBuy, got.CurrentVerdict)
	require.NotNil(t, got.BuyThreshold)
	assert.Equal(t, 14100.0, *got.BuyThreshold)
	assert.Equal(t, "Already a BUY; it stays a BUY up to $14,100.", got.Impact)
}

func TestSolveThresholds_OnlyMaybeReachable(t *testing.T) {
	ps := pricing.CalculatePriceScore(11000, 10000, 12000)
	got := NewScorer().SolveThresholds(Scores{Reliability: f(4), Longevity: f(4), PriceValue: f(ps.Score)}, nil, 10000, 12000, 11000)

	assert.Equal(t, VerdictPass, got.CurrentVerdict)
	assert.Nil(t, got.BuyThreshold)
	require.NotNil(t, got.MaybeThreshold)
	assert.Equal(t, 9700.0, *got.MaybeThreshold)
	assert.Contains(t, got.Impact, "no price reaches BUY")
	assert.Contains(t, got.Impact, "$9,700")
}

func TestSolveThresholds_Unreachable(t *testing.T) {
	got := NewScorer().SolveThresholds(Scores{Reliability: f(2), Longevity: f(2)}, nil, 10000, 12000, 0)
	assert.Nil(t, got.BuyThreshold)
	assert.Nil(t, got.MaybeThreshold)
	assert.Equal(t, VerdictPass, got.CurrentVerdict)
	assert.Equal(t, "Currently a PASS; no asking price lifts the score to MAYBE.", got.Impact)
}

func TestSolveThresholds_RoundedDownToHundred(t *testing.T) {
	got := NewScorer().SolveThresholds(Scores{Reliability: f(7.3), Longevity: f(8.1)}, nil, 13370, 15810, 0)
	for _, p := range []*float64{got.BuyThreshold, got.MaybeThreshold} {
		if p != nil {
			assert.Zero(t, int64(*p)%100)
		}
	}
}

func TestDollars(t *testing.T) {
	assert.Equal(t, "$0", dollars(0))
	assert.Equal(t, "$950", dollars(950))
	assert.Equal(t, "$11,600", dollars(11600))
	assert.Equal(t, "$1,234,567", dollars(1234567))
	assert.Equal(t, "-$1,500", dollars(-1500))
}
