// Package pricing estimates a fair market price range for a used vehicle
// and grades an asking price against it.
package pricing

import (
	"math"
	"time"

	"github.com/turtacn/carverdict/internal/domain/reference"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

const (
	// MilesPerYear is the expected annual mileage.
	MilesPerYear = 12000

	mileageRatePer10k = 0.02
	maxMileageAdjust  = 0.20

	rangeMargin = 0.08

	// midpointFloorFactor keeps the midpoint clear of the category floor.
	midpointFloorFactor = 1.1

	dealerPremium = 1.08

	priceRounding = 100
)

// Estimate is a fair price range with the inputs that produced it.
// Low < Midpoint < High, and Low is never below the category floor.
type Estimate struct {
	Low               int                `json:"low"`
	Midpoint          int                `json:"midpoint"`
	High              int                `json:"high"`
	MSRP              int                `json:"msrp"`
	MSRPMatched       bool               `json:"msrp_matched"`
	Category          reference.Category `json:"category"`
	AgeYears          int                `json:"age_years"`
	RetainedFraction  float64            `json:"retained_fraction"`
	BrandMultiplier   float64            `json:"brand_multiplier"`
	MileageAdjustment float64            `json:"mileage_adjustment"`
	SellerMultiplier  float64            `json:"seller_multiplier"`
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithClock overrides the time source used to derive vehicle age.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		if now != nil {
			e.now = now
		}
	}
}

// Estimator computes fair prices from the reference catalogue.  It is
// stateless and safe for concurrent use.
type Estimator struct {
	catalog *reference.Catalog
	now     func() time.Time
}

// NewEstimator returns an Estimator backed by catalog (the embedded default
// when nil).
func NewEstimator(catalog *reference.Catalog, opts ...Option) *Estimator {
	if catalog == nil {
		catalog = reference.Default()
	}
	e := &Estimator{catalog: catalog, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EstimateFairPrice never fails.  Unknown make/models fall back to the
// catalogue's default MSRP and category; negative mileage counts as zero.
func (e *Estimator) EstimateFairPrice(mk, model string, year, mileage int, seller vehicle.SellerType) Estimate {
	entry, matched := e.catalog.MSRP(mk, model)
	if !matched {
		def := e.catalog.Defaults()
		entry = reference.MSRPEntry{MSRP: def.MSRP, Category: def.Category}
	}
	curve := e.catalog.Curve(entry.Category)

	age := e.now().Year() - year
	if age < 0 {
		age = 0
	}
	if maxAge := e.catalog.MaxAge(); age > maxAge {
		age = maxAge
	}

	retained := 1.0
	for i := 0; i < age; i++ {
		retained *= curve.RateForYear(i)
	}
	retained = math.Max(retained, curve.Floor)

	brand := e.catalog.BrandRetention(mk)
	mileageAdj := MileageAdjustment(age, mileage)

	sellerMult := 1.0
	if seller == vehicle.SellerDealer {
		sellerMult = dealerPremium
	}

	mid := float64(entry.MSRP) * retained * brand * (1 + mileageAdj) * sellerMult
	mid = math.Max(mid, midpointFloorFactor*float64(curve.AbsoluteFloor))
	low, midpoint, high := priceRange(mid, curve.AbsoluteFloor)

	return Estimate{
		Low:               low,
		Midpoint:          midpoint,
		High:              high,
		MSRP:              entry.MSRP,
		MSRPMatched:       matched,
		Category:          entry.Category,
		AgeYears:          age,
		RetainedFraction:  math.Round(retained*10000) / 10000,
		BrandMultiplier:   brand,
		MileageAdjustment: math.Round(mileageAdj*10000) / 10000,
		SellerMultiplier:  sellerMult,
	}
}

// MileageAdjustment returns the fractional value adjustment for mileage on a
// vehicle of the given age: −2% per 10,000 miles above the expected
// max(age,1) × 12,000, +2% per 10,000 below, capped at ±20%.
func MileageAdjustment(age, mileage int) float64 {
	if mileage < 0 {
		mileage = 0
	}
	if age < 1 {
		age = 1
	}
	deviation := float64(mileage - age*MilesPerYear)
	adj := -(deviation / 10000) * mileageRatePer10k
	return math.Max(-maxMileageAdjust, math.Min(maxMileageAdjust, adj))
}

// priceRange spreads mid by ±8%, rounds to $100 and keeps low at or above
// floor with low < midpoint < high.
func priceRange(mid float64, floor int) (low, midpoint, high int) {
	midpoint = roundPrice(mid)
	if midpoint < floor+priceRounding {
		midpoint = floor + priceRounding
	}
	if midpoint < 2*priceRounding {
		midpoint = 2 * priceRounding
	}
	low = roundPrice(mid * (1 - rangeMargin))
	high = roundPrice(mid * (1 + rangeMargin))
	if low < floor {
		low = floor
	}
	if low >= midpoint {
		low = midpoint - priceRounding
	}
	if high <= midpoint {
		high = midpoint + priceRounding
	}
	return low, midpoint, high
}

func roundPrice(v float64) int {
	return int(math.Round(v/priceRounding)) * priceRounding
}
