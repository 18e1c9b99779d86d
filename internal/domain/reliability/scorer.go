// Package reliability fuses the reliability database, safety-registry
// complaints and crash-test star ratings into a 1-10 reliability score
// tagged with its source and a confidence level.
package reliability

import (
	"encoding/json"
	"math"
	"time"

	"github.com/turtacn/carverdict/internal/domain/reference"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

const (
	// NeutralScore is the score used when no data is available.
	NeutralScore = 5.0

	minScore = 1.0
	maxScore = 10.0

	// complaintNormalizer scales the weighted complaint severity sum.
	complaintNormalizer = 100.0

	// modernYear is the first model year that earns the database bonus.
	modernYear = 2018

	// derivedMediumComplaints is the complaint count that lifts derived
	// confidence to medium.
	derivedMediumComplaints = 20
)

// ─────────────────────────────────────────────────────────────────────────────
// Types
// ─────────────────────────────────────────────────────────────────────────────

// Input is the set of facts the scorer consumes.  Complaints and Rating are
// optional.
type Input struct {
	Vehicle    vehicle.Identity
	Complaints []vehicle.Complaint
	Rating     *vehicle.SafetyRating
}

// Factors is the additive breakdown of a score.
type Factors struct {
	BaseScore           float64 `json:"base_score"`
	YearAdjustment      float64 `json:"year_adjustment"`
	ComplaintAdjustment float64 `json:"complaint_adjustment"`
	SafetyAdjustment    float64 `json:"safety_adjustment"`
}

// Result is a scored reliability assessment.  Score is always within
// [1,10] and rounded to one decimal.
type Result struct {
	Score      float64            `json:"score"`
	Source     Source             `json:"-"`
	Confidence vehicle.Confidence `json:"confidence"`
	Factors    Factors            `json:"factors"`
}

// MarshalJSON renders Source as its kind string plus a detail object.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		Source       SourceKind `json:"source"`
		SourceDetail Source     `json:"source_detail,omitempty"`
	}{plain: plain(r)}
	if r.Source != nil {
		out.Source = r.Source.Kind()
		if r.Source.Kind() != KindDefault {
			out.SourceDetail = r.Source
		}
	}
	return json.Marshal(out)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scorer
// ─────────────────────────────────────────────────────────────────────────────

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the time source used to derive vehicle age.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// Scorer computes reliability scores against a reference catalogue.  It is
// stateless and safe for concurrent use.
type Scorer struct {
	catalog *reference.Catalog
	now     func() time.Time
}

// NewScorer returns a Scorer backed by catalog (the embedded default when nil).
func NewScorer(catalog *reference.Catalog, opts ...Option) *Scorer {
	if catalog == nil {
		catalog = reference.Default()
	}
	s := &Scorer{catalog: catalog, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score never fails.  Known vehicles are scored from the database, unknown
// vehicles with complaints or a rating are derived from registry data, and
// everything else gets the neutral default.
func (s *Scorer) Score(in Input) Result {
	if rec, ok := s.catalog.Vehicle(in.Vehicle.Make, in.Vehicle.Model); ok {
		return s.scoreKnown(rec, in)
	}
	if len(in.Complaints) > 0 || in.Rating.IsRated() {
		return s.scoreDerived(in)
	}
	return Result{
		Score:      NeutralScore,
		Source:     DefaultSource{},
		Confidence: vehicle.ConfidenceLow,
		Factors:    Factors{BaseScore: NeutralScore},
	}
}

func (s *Scorer) scoreKnown(rec reference.VehicleRecord, in Input) Result {
	f := Factors{BaseScore: rec.BaseScore}

	switch {
	case rec.IsAvoidYear(in.Vehicle.Year):
		f.YearAdjustment = -2.0
	case in.Vehicle.Year >= modernYear:
		f.YearAdjustment = 0.3
	}

	if len(in.Complaints) > 0 {
		var weighted float64
		for _, c := range in.Complaints {
			weighted += c.SeverityWeight()
		}
		normalized := weighted / complaintNormalizer
		switch {
		case normalized > 5:
			f.ComplaintAdjustment = -1.0
		case normalized > 2:
			f.ComplaintAdjustment = -0.5
		case normalized < 0.5:
			f.ComplaintAdjustment = 0.3
		}
	}

	switch stars := in.Rating.OverallStars(); {
	case stars == 5:
		f.SafetyAdjustment = 0.3
	case stars == 4:
		f.SafetyAdjustment = 0.15
	case stars >= 1 && stars <= 2:
		f.SafetyAdjustment = -0.3
	}

	return Result{
		Score: clampScore(f.BaseScore + f.YearAdjustment + f.ComplaintAdjustment + f.SafetyAdjustment),
		Source: DatabaseSource{
			Make:           rec.Make,
			Model:          rec.Model,
			CatalogVersion: s.catalog.Version(),
		},
		Confidence: vehicle.ConfidenceHigh,
		Factors:    f,
	}
}

func (s *Scorer) scoreDerived(in Input) Result {
	age := s.now().Year() - in.Vehicle.Year
	if age < 1 {
		age = 1
	}

	var incidents int
	var deaths bool
	for _, c := range in.Complaints {
		if c.IsSafetyIncident() {
			incidents++
		}
		if c.Deaths > 0 {
			deaths = true
		}
	}
	perYear := float64(len(in.Complaints)) / float64(age)
	incidentRate := float64(incidents) / float64(age)

	f := Factors{BaseScore: NeutralScore}

	switch {
	case perYear < 10:
		f.ComplaintAdjustment = 2.0
	case perYear < 25:
		f.ComplaintAdjustment = 1.0
	case perYear < 50:
		f.ComplaintAdjustment = 0
	case perYear < 75:
		f.ComplaintAdjustment = -1.0
	case perYear < 100:
		f.ComplaintAdjustment = -1.5
	default:
		f.ComplaintAdjustment = -2.5
	}
	switch {
	case incidentRate > 10:
		f.ComplaintAdjustment -= 1.0
	case incidentRate > 5:
		f.ComplaintAdjustment -= 0.5
	}
	if deaths {
		f.ComplaintAdjustment -= 0.5
	}

	switch in.Rating.OverallStars() {
	case 5:
		f.SafetyAdjustment = 0.5
	case 4:
		f.SafetyAdjustment = 0.25
	case 2:
		f.SafetyAdjustment = -0.5
	case 1:
		f.SafetyAdjustment = -1.0
	}

	switch y := in.Vehicle.Year; {
	case y >= 2020:
		f.YearAdjustment = 0.5
	case y >= 2015:
		f.YearAdjustment = 0.25
	case y < 2010:
		f.YearAdjustment = -0.25
	}

	conf := vehicle.ConfidenceLow
	if len(in.Complaints) >= derivedMediumComplaints || in.Rating.IsRated() {
		conf = vehicle.ConfidenceMedium
	}

	return Result{
		Score: clampScore(f.BaseScore + f.YearAdjustment + f.ComplaintAdjustment + f.SafetyAdjustment),
		Source: DerivedSource{
			ComplaintCount:    len(in.Complaints),
			ComplaintsPerYear: round1(perYear),
			IncidentRate:      round1(incidentRate),
			Rated:             in.Rating.IsRated(),
		},
		Confidence: conf,
		Factors:    f,
	}
}

// SafetyScore maps an overall star rating onto the 1-10 scale (stars × 2).
// It returns nil when the vehicle is unrated.
func SafetyScore(r *vehicle.SafetyRating) *float64 {
	stars := r.OverallStars()
	if stars == 0 {
		return nil
	}
	v := float64(stars) * 2
	return &v
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return NeutralScore
	}
	return round1(math.Max(minScore, math.Min(maxScore, v)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
