package assessment

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/turtacn/carverdict/internal/domain/lifespan"
	"github.com/turtacn/carverdict/internal/domain/pricing"
	"github.com/turtacn/carverdict/internal/domain/reliability"
	"github.com/turtacn/carverdict/internal/domain/survival"
	"github.com/turtacn/carverdict/internal/domain/verdict"
	"github.com/turtacn/carverdict/pkg/errors"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

// MaxMileage is the largest odometer reading accepted at the boundary.
const MaxMileage = 2_000_000

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// Request is the input to a full assessment.  Everything except Vehicle and
// Mileage is optional.
type Request struct {
	Vehicle      vehicle.Identity      `json:"vehicle"`
	Mileage      int                   `json:"mileage"`
	AskingPrice  *float64              `json:"asking_price,omitempty"`
	Seller       vehicle.SellerType    `json:"seller,omitempty"`
	Factors      lifespan.Factors      `json:"factors"`
	Complaints   []vehicle.Complaint   `json:"complaints,omitempty"`
	SafetyRating *vehicle.SafetyRating `json:"safety_rating,omitempty"`
	RedFlags     []vehicle.RedFlag     `json:"red_flags,omitempty"`
}

// Validate checks the request against the accepted input window and
// normalizes the seller, factors and red flag severities in place.
func (r *Request) Validate(now time.Time) error {
	if r == nil {
		return errors.New(errors.CodeInvalidVehicle, "request is required")
	}
	if err := r.Vehicle.Validate(now.Year()); err != nil {
		return err
	}
	if err := validateMileage(r.Mileage); err != nil {
		return err
	}
	if err := validateAskingPrice(r.AskingPrice); err != nil {
		return err
	}
	for i, f := range r.RedFlags {
		sev, ok := vehicle.ParseFlagSeverity(string(f.Severity))
		if !ok {
			return errors.InvalidParam("unknown red flag severity").
				WithDetail(fmt.Sprintf("red_flags[%d].severity=%q", i, f.Severity))
		}
		r.RedFlags[i].Severity = sev
	}
	r.Seller = vehicle.ParseSellerType(string(r.Seller))
	r.Factors = r.Factors.Normalize()
	return nil
}

// PriceRequest asks for a fair price range and, when AskingPrice is set, a
// price score.
type PriceRequest struct {
	Vehicle     vehicle.Identity   `json:"vehicle"`
	Mileage     int                `json:"mileage"`
	AskingPrice *float64           `json:"asking_price,omitempty"`
	Seller      vehicle.SellerType `json:"seller,omitempty"`
}

// Validate mirrors Request.Validate for the price-only workflow.
func (r *PriceRequest) Validate(now time.Time) error {
	if r == nil {
		return errors.New(errors.CodeInvalidVehicle, "request is required")
	}
	if err := r.Vehicle.Validate(now.Year()); err != nil {
		return err
	}
	if err := validateMileage(r.Mileage); err != nil {
		return err
	}
	if err := validateAskingPrice(r.AskingPrice); err != nil {
		return err
	}
	r.Seller = vehicle.ParseSellerType(string(r.Seller))
	return nil
}

// SurvivalRequest asks for survival milestones only.
type SurvivalRequest struct {
	Vehicle vehicle.Identity `json:"vehicle"`
	Mileage int              `json:"mileage"`
	Factors lifespan.Factors `json:"factors"`
}

// Validate mirrors Request.Validate for the survival-only workflow.
func (r *SurvivalRequest) Validate(now time.Time) error {
	if r == nil {
		return errors.New(errors.CodeInvalidVehicle, "request is required")
	}
	if err := r.Vehicle.Validate(now.Year()); err != nil {
		return err
	}
	if err := validateMileage(r.Mileage); err != nil {
		return err
	}
	r.Factors = r.Factors.Normalize()
	return nil
}

// ThresholdRequest solves verdict-changing prices for already known
// sub-scores.
type ThresholdRequest struct {
	Scores      verdict.Scores    `json:"scores"`
	RedFlags    []vehicle.RedFlag `json:"red_flags,omitempty"`
	FairLow     float64           `json:"fair_low"`
	FairHigh    float64           `json:"fair_high"`
	AskingPrice float64           `json:"asking_price,omitempty"`
}

// Validate requires a usable fair range.
func (r *ThresholdRequest) Validate() error {
	if r == nil {
		return errors.InvalidParam("request is required")
	}
	if !positiveFinite(r.FairLow) || !positiveFinite(r.FairHigh) {
		return errors.New(errors.CodeInvalidPrice, "fair price bounds must be positive").
			WithDetail(fmt.Sprintf("fair_low=%v fair_high=%v", r.FairLow, r.FairHigh))
	}
	if r.AskingPrice < 0 || math.IsNaN(r.AskingPrice) || math.IsInf(r.AskingPrice, 0) {
		return errors.New(errors.CodeInvalidPrice, "asking price must be a finite non-negative number")
	}
	for i, f := range r.RedFlags {
		sev, ok := vehicle.ParseFlagSeverity(string(f.Severity))
		if !ok {
			return errors.InvalidParam("unknown red flag severity").
				WithDetail(fmt.Sprintf("red_flags[%d].severity=%q", i, f.Severity))
		}
		r.RedFlags[i].Severity = sev
	}
	return nil
}

func validateMileage(m int) error {
	if m < 0 || m > MaxMileage {
		return errors.New(errors.CodeInvalidMileage, "mileage out of range").
			WithDetail(fmt.Sprintf("mileage=%d allowed=[0,%d]", m, MaxMileage))
	}
	return nil
}

func validateAskingPrice(p *float64) error {
	if p == nil {
		return nil
	}
	if !positiveFinite(*p) {
		return errors.New(errors.CodeInvalidPrice, "asking price must be a positive number").
			WithDetail(fmt.Sprintf("asking_price=%v", *p))
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// Assessment is the full pipeline output.
type Assessment struct {
	ID           string                    `json:"id"`
	Vehicle      vehicle.Identity          `json:"vehicle"`
	Mileage      int                       `json:"mileage"`
	AskingPrice  *float64                  `json:"asking_price,omitempty"`
	AssessedAt   time.Time                 `json:"assessed_at"`
	Reliability  reliability.Result        `json:"reliability"`
	YearLifespan lifespan.YearLifespan     `json:"year_lifespan"`
	Lifespan     lifespan.AdjustedLifespan `json:"lifespan"`
	Survival     survival.Analysis         `json:"survival"`
	FairPrice    pricing.Estimate          `json:"fair_price"`
	PriceScore   *pricing.Score            `json:"price_score,omitempty"`
	Result       verdict.Result            `json:"result"`
	Thresholds   verdict.PriceThresholds   `json:"thresholds"`
	RedFlags     []vehicle.RedFlag         `json:"red_flags,omitempty"`
}

// Verdict is shorthand for the recommendation verdict.
func (a *Assessment) Verdict() verdict.Verdict {
	return a.Result.Recommendation.Verdict
}

// PriceResult is the output of EstimatePrice.
type PriceResult struct {
	Vehicle    vehicle.Identity `json:"vehicle"`
	Mileage    int              `json:"mileage"`
	FairPrice  pricing.Estimate `json:"fair_price"`
	PriceScore *pricing.Score   `json:"price_score,omitempty"`
}

// SurvivalResult is the output of AnalyzeSurvival.
type SurvivalResult struct {
	Vehicle      vehicle.Identity          `json:"vehicle"`
	Mileage      int                       `json:"mileage"`
	YearLifespan lifespan.YearLifespan     `json:"year_lifespan"`
	Lifespan     lifespan.AdjustedLifespan `json:"lifespan"`
	Survival     survival.Analysis         `json:"survival"`
}

func trimmed(id vehicle.Identity) vehicle.Identity {
	return vehicle.Identity{Make: strings.TrimSpace(id.Make), Model: strings.TrimSpace(id.Model), Year: id.Year}
}
