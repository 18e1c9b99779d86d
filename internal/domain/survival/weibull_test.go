package survival

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionalSurvival_AtZeroIsExactlyOne(t *testing.T) {
	for _, c := range []float64{0, 1, 50000, 199999, 400000, -10, math.NaN()} {
		for _, k := range []float64{1.5, 3.2, 5} {
			assert.Equal(t, 1.0, ConditionalSurvival(c, 0, 200000, k), "c=%v k=%v", c, k)
		}
	}
}

func TestConditionalSurvival_NonIncreasing(t *testing.T) {
	for _, c := range []float64{0, 80000, 190000, 300000} {
		for _, k := range []float64{1.5, 2.0, 3.2, 4.5} {
			prev := 1.0
			for x := 1000.0; x <= 400000; x += 1000 {
				p := ConditionalSurvival(c, x, 200000, k)
				require.LessOrEqual(t, p, prev, "c=%v k=%v x=%v", c, k, x)
				require.GreaterOrEqual(t, p, 0.0)
				prev = p
			}
		}
	}
}

func TestConditionalSurvival_KnownValues(t *testing.T) {
	// From zero miles, surviving to the scale is exp(-1) for any shape.
	assert.InDelta(t, math.Exp(-1), ConditionalSurvival(0, 200000, 200000, 3.2), 1e-12)
	assert.InDelta(t, 0.74866, ConditionalSurvival(100000, 50000, 200000, 3.2), 1e-5)
}

func TestConditionalSurvival_DegenerateParameters(t *testing.T) {
	assert.Equal(t, 0.0, ConditionalSurvival(0, 1000, 0, 3.2))
	assert.Equal(t, 0.0, ConditionalSurvival(0, 1000, 200000, 0))
	assert.Equal(t, 0.0, ConditionalSurvival(0, 1000, math.Inf(1), 3.2))
	assert.Equal(t, 1.0, ConditionalSurvival(0, math.NaN(), 200000, 3.2))
}

func TestQuantile_InvertsSurvival(t *testing.T) {
	for _, c := range []float64{0, 60000, 150000, 260000} {
		for _, p := range []float64{0.25, 0.5, 0.75, 0.9} {
			x := Quantile(c, 250000, 3.5, p)
			assert.InDelta(t, p, ConditionalSurvival(c, x, 250000, 3.5), 1e-9, "c=%v p=%v", c, p)
		}
	}
	assert.Equal(t, 0.0, Quantile(0, 250000, 3.5, 1))
	assert.Greater(t, Quantile(0, 250000, 3.5, 0), 0.0)
	assert.Equal(t, 0.0, Quantile(0, -1, 3.5, 0.5))
}

func TestQuantile_OrderedPercentiles(t *testing.T) {
	q75 := Quantile(60000, 250000, 3.5, 0.75)
	q50 := Quantile(60000, 250000, 3.5, 0.5)
	q25 := Quantile(60000, 250000, 3.5, 0.25)
	assert.Less(t, q75, q50)
	assert.Less(t, q50, q25)
}

func TestQuantile_FarPastScale(t *testing.T) {
	assert.Equal(t, 0.0, Quantile(1e300, 200000, 3.2, 0.5))
}
