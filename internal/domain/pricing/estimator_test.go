package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/carverdict/internal/domain/reference"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

const testYear = 2025

func newTestEstimator() *Estimator {
	return NewEstimator(nil, WithClock(func() time.Time {
		return time.Date(testYear, time.March, 15, 0, 0, 0, 0, time.UTC)
	}))
}

func TestEstimateFairPrice_CamryAtExpectedMileage(t *testing.T) {
	e := newTestEstimator()

	got := e.EstimateFairPrice("Toyota", "Camry", testYear-5, 5*MilesPerYear, vehicle.SellerPrivate)

	assert.Equal(t, 27000, got.MSRP)
	assert.True(t, got.MSRPMatched)
	assert.Equal(t, reference.CategoryMidsize, got.Category)
	assert.Equal(t, 5, got.AgeYears)
	assert.Equal(t, 1.08, got.BrandMultiplier)
	assert.Equal(t, 0.0, got.MileageAdjustment)
	assert.Equal(t, 1.0, got.SellerMultiplier)
	assert.Equal(t, 14000, got.Low)
	assert.Equal(t, 15200, got.Midpoint)
	assert.Equal(t, 16400, got.High)
	assert.Less(t, got.Low, got.Midpoint)
	assert.Less(t, got.Midpoint, got.High)
}

func TestEstimateFairPrice_MidpointFallsAsMileageRises(t *testing.T) {
	e := newTestEstimator()

	prev := int(^uint(0) >> 1)
	for _, miles := range []int{30000, 60000, 90000, 120000, 150000} {
		got := e.EstimateFairPrice("Toyota", "Camry", testYear-5, miles, vehicle.SellerPrivate)
		assert.Less(t, got.Midpoint, prev, "mileage %d", miles)
		prev = got.Midpoint
	}
}

func TestEstimateFairPrice_DealerPremium(t *testing.T) {
	e := newTestEstimator()

	private := e.EstimateFairPrice("Toyota", "Camry", testYear-5, 60000, vehicle.SellerPrivate)
	dealer := e.EstimateFairPrice("Toyota", "Camry", testYear-5, 60000, vehicle.SellerDealer)
	unknown := e.EstimateFairPrice("Toyota", "Camry", testYear-5, 60000, vehicle.SellerUnknown)

	assert.Equal(t, 16400, dealer.Midpoint)
	assert.Equal(t, 1.08, dealer.SellerMultiplier)
	assert.Equal(t, private, unknown)
}

func TestEstimateFairPrice_UnknownVehicleUsesDefaults(t *testing.T) {
	got := newTestEstimator().EstimateFairPrice("Yugo", "GV", testYear-3, 36000, vehicle.SellerUnknown)

	assert.False(t, got.MSRPMatched)
	assert.Equal(t, 30000, got.MSRP)
	assert.Equal(t, reference.CategoryMidsize, got.Category)
	assert.Equal(t, 19300, got.Midpoint)
}

func TestEstimateFairPrice_TrimSuffixMatches(t *testing.T) {
	e := newTestEstimator()
	base := e.EstimateFairPrice("Toyota", "Camry", 2020, 60000, vehicle.SellerPrivate)
	trim := e.EstimateFairPrice("toyota", "Camry XSE V6", 2020, 60000, vehicle.SellerPrivate)
	assert.Equal(t, base, trim)
}

func TestEstimateFairPrice_RangeInvariants(t *testing.T) {
	e := newTestEstimator()
	cat := reference.Default()

	cars := [][2]string{
		{"Toyota", "Camry"}, {"Ford", "Fiesta"}, {"BMW", "X5"}, {"Ram", "1500"},
		{"Tesla", "Model 3"}, {"Porsche", "911"}, {"Yugo", "GV"},
	}
	for _, car := range cars {
		for _, year := range []int{1985, 2000, 2010, 2020, testYear, testYear + 1} {
			for _, miles := range []int{-100, 0, 45000, 400000} {
				got := e.EstimateFairPrice(car[0], car[1], year, miles, vehicle.SellerPrivate)
				floor := cat.Curve(got.Category).AbsoluteFloor

				require.Less(t, got.Low, got.Midpoint, "%v %d %d", car, year, miles)
				require.Less(t, got.Midpoint, got.High, "%v %d %d", car, year, miles)
				require.GreaterOrEqual(t, got.Low, floor, "%v %d %d", car, year, miles)
				require.GreaterOrEqual(t, float64(got.Midpoint), 1.1*float64(floor)-50)
				require.Zero(t, got.Low%100)
				require.Zero(t, got.Midpoint%100)
				require.Zero(t, got.High%100)
				require.LessOrEqual(t, got.AgeYears, cat.MaxAge())
				require.GreaterOrEqual(t, got.RetainedFraction, cat.Curve(got.Category).Floor)
			}
		}
	}
}

func TestMileageAdjustment(t *testing.T) {
	tests := []struct {
		name    string
		age     int
		mileage int
		want    float64
	}{
		{"on expectation", 5, 60000, 0},
		{"20k over", 5, 80000, -0.04},
		{"20k under", 5, 40000, 0.04},
		{"capped high mileage", 3, 400000, -0.20},
		{"capped low mileage", 20, 0, 0.20},
		{"new car uses one year", 0, 12000, 0},
		{"negative mileage is zero", 1, -5000, 0.024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MileageAdjustment(tt.age, tt.mileage), 1e-12)
		})
	}
}

func TestPriceRange_TinyValues(t *testing.T) {
	low, mid, high := priceRange(40, 0)
	assert.Equal(t, 0, low)
	assert.Equal(t, 200, mid)
	assert.Equal(t, 300, high)
}
