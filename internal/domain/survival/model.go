package survival

import (
	"fmt"
	"math"

	"github.com/turtacn/carverdict/internal/domain/lifespan"
	"github.com/turtacn/carverdict/pkg/errors"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

const (
	// BaseShape is the Weibull shape before adjustments.
	BaseShape = 3.2

	minShape = 1.5
	maxShape = 5.0

	// expectedMilesPerYear drives the survivor-bias check.
	expectedMilesPerYear = 12000

	survivorMinAge       = 10
	survivorMileageShare = 0.6

	// nearEndShare is the share of the lifespan past which milestones switch
	// to fine steps.
	nearEndShare = 0.85

	quantileRounding = 1000
)

// RiskLevel classifies a milestone probability.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskModerate RiskLevel = "moderate"
	RiskRisky    RiskLevel = "risky"
	RiskUnlikely RiskLevel = "unlikely"
)

// RiskThresholds are the lower probability bounds of the safe, moderate and
// risky levels.  Anything below Risky is unlikely.
type RiskThresholds struct {
	Safe     float64 `json:"safe" mapstructure:"safe"`
	Moderate float64 `json:"moderate" mapstructure:"moderate"`
	Risky    float64 `json:"risky" mapstructure:"risky"`
}

// DefaultRiskThresholds returns safe ≥ 0.80, moderate ≥ 0.50, risky ≥ 0.20.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{Safe: 0.80, Moderate: 0.50, Risky: 0.20}
}

// Validate requires 0 < Risky < Moderate < Safe < 1.
func (t RiskThresholds) Validate() error {
	if !(t.Risky > 0 && t.Risky < t.Moderate && t.Moderate < t.Safe && t.Safe < 1) {
		return errors.New(errors.CodeConfigInvalid, "risk thresholds must satisfy 0 < risky < moderate < safe < 1").
			WithDetail(fmt.Sprintf("safe=%.2f moderate=%.2f risky=%.2f", t.Safe, t.Moderate, t.Risky))
	}
	return nil
}

// Classify maps a probability onto a RiskLevel.
func (t RiskThresholds) Classify(p float64) RiskLevel {
	switch {
	case p >= t.Safe:
		return RiskSafe
	case p >= t.Moderate:
		return RiskModerate
	case p >= t.Risky:
		return RiskRisky
	default:
		return RiskUnlikely
	}
}

// Input carries everything Analyze needs.  KnownIssues are the issues that
// apply to the vehicle's model year.  ReliabilityScore is optional.
type Input struct {
	CurrentMileage     float64
	AdjustedLifespan   float64
	LifespanConfidence vehicle.Confidence
	KnownIssues        []vehicle.KnownIssue
	ReliabilityScore   *float64
	Factors            lifespan.Factors
	VehicleAgeYears    int
}

// Milestone is the survival probability at one future distance.
type Milestone struct {
	AdditionalMiles int       `json:"additional_miles"`
	TotalMiles      int       `json:"total_miles"`
	Probability     float64   `json:"probability"`
	RiskLevel       RiskLevel `json:"risk_level"`
}

// Range is an interquartile range of additional miles.
type Range struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Analysis is the output of Analyze.  Milestones are ordered by distance and
// their probabilities never increase.
type Analysis struct {
	Milestones              []Milestone        `json:"milestones"`
	ExpectedAdditionalMiles int                `json:"expected_additional_miles"`
	ConfidenceRange         Range              `json:"confidence_range"`
	ShapeParameter          float64            `json:"shape_parameter"`
	ScaleParameter          float64            `json:"scale_parameter"`
	ModelConfidence         vehicle.Confidence `json:"model_confidence"`
	Warnings                []string           `json:"warnings"`
}

// Option configures a Model.
type Option func(*Model)

// WithRiskThresholds overrides the milestone classification bounds.  Invalid
// thresholds are ignored.
func WithRiskThresholds(t RiskThresholds) Option {
	return func(m *Model) {
		if t.Validate() == nil {
			m.thresholds = t
		}
	}
}

// Model runs survival analyses.  It is stateless and safe for concurrent use.
type Model struct {
	thresholds RiskThresholds
}

// NewModel returns a Model with the default risk thresholds unless
// overridden.
func NewModel(opts ...Option) *Model {
	m := &Model{thresholds: DefaultRiskThresholds()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Thresholds returns the active risk thresholds.
func (m *Model) Thresholds() RiskThresholds { return m.thresholds }

// Analyze never fails.  Invalid mileage is treated as zero and an invalid
// lifespan is replaced by lifespan.DefaultLifespan with low confidence.
func (m *Model) Analyze(in Input) Analysis {
	warnings := make([]string, 0, 4)

	current := sanitizeMileage(in.CurrentMileage)
	scale := in.AdjustedLifespan
	inputConf := in.LifespanConfidence
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		scale = lifespan.DefaultLifespan
		inputConf = vehicle.ConfidenceLow
		warnings = append(warnings, fmt.Sprintf("lifespan estimate was invalid; using the default of %d miles", lifespan.DefaultLifespan))
	}

	highest := vehicle.HighestSeverity(in.KnownIssues)
	critical := highest == vehicle.IssueCritical
	shape := ShapeParameter(in, current)

	steps := milestoneSteps(current, scale, critical)
	milestones := make([]Milestone, 0, len(steps))
	for _, x := range steps {
		p := round4(ConditionalSurvival(current, float64(x), scale, shape))
		milestones = append(milestones, Milestone{
			AdditionalMiles: x,
			TotalMiles:      roundTo(current+float64(x), 1),
			Probability:     p,
			RiskLevel:       m.thresholds.Classify(p),
		})
	}

	exceeded := current > scale
	conf := vehicle.ParseConfidence(string(inputConf))
	switch {
	case exceeded || conf == vehicle.ConfidenceLow:
		conf = vehicle.ConfidenceLow
	case critical:
		conf = vehicle.ConfidenceMedium
	}

	if exceeded {
		warnings = append(warnings, "current mileage already exceeds the expected lifespan")
	}
	if critical {
		warnings = append(warnings, "critical known issue present: "+criticalComponents(in.KnownIssues))
	}
	if in.Factors.Normalize().Maintenance == lifespan.MaintenancePoor {
		warnings = append(warnings, "poor maintenance history shortens expected life")
	}
	if vehicle.ParseConfidence(string(in.LifespanConfidence)) == vehicle.ConfidenceLow {
		warnings = append(warnings, "lifespan estimate has low confidence")
	}

	return Analysis{
		Milestones:              milestones,
		ExpectedAdditionalMiles: roundTo(Quantile(current, scale, shape, 0.5), quantileRounding),
		ConfidenceRange: Range{
			Low:  roundTo(Quantile(current, scale, shape, 0.75), quantileRounding),
			High: roundTo(Quantile(current, scale, shape, 0.25), quantileRounding),
		},
		ShapeParameter:  shape,
		ScaleParameter:  scale,
		ModelConfidence: conf,
		Warnings:        warnings,
	}
}

// ShapeParameter derives the Weibull shape k for in at the given sanitized
// mileage.
func ShapeParameter(in Input, current float64) float64 {
	k := BaseShape

	switch vehicle.HighestSeverity(in.KnownIssues) {
	case vehicle.IssueCritical:
		k -= 1.2
	case vehicle.IssueMajor:
		k -= 0.5
	}

	if r := in.ReliabilityScore; r != nil && !math.IsNaN(*r) {
		switch {
		case *r >= 9:
			k += 0.5
		case *r <= 5:
			k -= 0.3
		}
	}

	f := in.Factors.Normalize()
	if f.Transmission == lifespan.TransmissionCVT {
		k -= 0.2
	}
	if f.Maintenance == lifespan.MaintenancePoor {
		k -= 0.3
	}

	if in.VehicleAgeYears >= survivorMinAge &&
		current < survivorMileageShare*float64(in.VehicleAgeYears*expectedMilesPerYear) {
		k += 0.3
	}

	k = math.Max(minShape, math.Min(maxShape, k))
	return math.Round(k*100) / 100
}

// milestoneSteps picks the milestone grid: 25k steps to 150k with a critical
// issue, 5k steps to 25k near the end of life, otherwise 50k steps to 250k.
func milestoneSteps(current, scale float64, critical bool) []int {
	step, limit := 50000, 250000
	switch {
	case critical:
		step, limit = 25000, 150000
	case current >= nearEndShare*scale:
		step, limit = 5000, 25000
	}
	out := make([]int, 0, limit/step)
	for x := step; x <= limit; x += step {
		out = append(out, x)
	}
	return out
}

func criticalComponents(issues []vehicle.KnownIssue) string {
	var out string
	for _, ki := range issues {
		if ki.Severity != vehicle.IssueCritical {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += ki.Component
	}
	return out
}

// maxMiles caps mileage figures before they are converted to int.
const maxMiles = math.MaxInt32

// roundTo rounds v to the nearest unit.  Non-finite and negative values
// become 0 and values past maxMiles are capped.
func roundTo(v float64, unit int) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v > maxMiles {
		v = maxMiles
	}
	return int(math.Round(v/float64(unit))) * unit
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
