// Package vehicle defines the externally supplied facts the valuation engine
// consumes: vehicle identity, safety-registry complaints and star ratings,
// catalogued known issues and listing red flags.  Values are immutable once
// constructed and safe to serialize directly.
package vehicle

import (
	"fmt"
	"strings"

	"github.com/turtacn/carverdict/pkg/errors"
)

// MinModelYear is the earliest model year accepted at request boundaries.
const MinModelYear = 1980

// Identity identifies a vehicle by make, model and model year.
type Identity struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// Validate checks the identity against the accepted model-year window
// [MinModelYear, currentYear+1].
func (v Identity) Validate(currentYear int) error {
	if strings.TrimSpace(v.Make) == "" {
		return errors.New(errors.CodeInvalidVehicle, "make is required")
	}
	if strings.TrimSpace(v.Model) == "" {
		return errors.New(errors.CodeInvalidVehicle, "model is required")
	}
	if v.Year < MinModelYear || v.Year > currentYear+1 {
		return errors.New(errors.CodeYearOutOfRange, "model year out of range").
			WithDetail(fmt.Sprintf("year=%d allowed=[%d,%d]", v.Year, MinModelYear, currentYear+1))
	}
	return nil
}

// Key returns the normalized "make|model|year" composite key.
func (v Identity) Key() string {
	return fmt.Sprintf("%s|%s|%d", NormalizeMake(v.Make), NormalizeModel(v.Model), v.Year)
}

func (v Identity) String() string {
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}

// Confidence is a coarse three-level confidence tag.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidences: low 0, medium 1, high 2.  Unrecognized values
// rank as low.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// MinConfidence returns the weaker of a and b.
func MinConfidence(a, b Confidence) Confidence {
	r := a.Rank()
	if b.Rank() < r {
		r = b.Rank()
	}
	switch r {
	case 2:
		return ConfidenceHigh
	case 1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ParseConfidence maps a string to a Confidence; anything unrecognized is low.
func ParseConfidence(s string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(s))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Complaint is one safety-registry complaint record.  Field names follow the
// registry's JSON payload.
type Complaint struct {
	Component string `json:"components" yaml:"components"`
	Summary   string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Crash     bool   `json:"crash" yaml:"crash"`
	Fire      bool   `json:"fire" yaml:"fire"`
	Injuries  int    `json:"numberOfInjuries" yaml:"numberOfInjuries"`
	Deaths    int    `json:"numberOfDeaths" yaml:"numberOfDeaths"`
}

// IsSafetyIncident reports whether the complaint involved a crash, a fire,
// an injury or a death.
func (c Complaint) IsSafetyIncident() bool {
	return c.Crash || c.Fire || c.Injuries > 0 || c.Deaths > 0
}

// SeverityWeight returns deaths×50 + injuries×20 + fire×15 + crash×10 + 1.
// Negative counts are treated as zero.
func (c Complaint) SeverityWeight() float64 {
	w := 1.0
	w += 50 * float64(nonNegative(c.Deaths))
	w += 20 * float64(nonNegative(c.Injuries))
	if c.Fire {
		w += 15
	}
	if c.Crash {
		w += 10
	}
	return w
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// SafetyRating holds crash-test star ratings; 0 means not rated.
type SafetyRating struct {
	Overall  int `json:"overall"`
	Frontal  int `json:"frontal,omitempty"`
	Side     int `json:"side,omitempty"`
	Rollover int `json:"rollover,omitempty"`
}

// OverallStars returns the overall rating, or 0 when r is nil or the value
// lies outside 1..5.
func (r *SafetyRating) OverallStars() int {
	if r == nil || r.Overall < 1 || r.Overall > 5 {
		return 0
	}
	return r.Overall
}

// IsRated reports whether an overall rating is present.
func (r *SafetyRating) IsRated() bool {
	return r.OverallStars() > 0
}

// IssueSeverity grades a catalogued known issue.
type IssueSeverity string

const (
	IssueMinor    IssueSeverity = "minor"
	IssueModerate IssueSeverity = "moderate"
	IssueMajor    IssueSeverity = "major"
	IssueCritical IssueSeverity = "critical"
)

// Rank orders severities from 0 (unknown) to 4 (critical).
func (s IssueSeverity) Rank() int {
	switch s {
	case IssueCritical:
		return 4
	case IssueMajor:
		return 3
	case IssueModerate:
		return 2
	case IssueMinor:
		return 1
	default:
		return 0
	}
}

// KnownIssue is a catalogued failure pattern for a make/model.
type KnownIssue struct {
	Component      string        `json:"component" yaml:"component"`
	Description    string        `json:"description" yaml:"description"`
	Severity       IssueSeverity `json:"severity" yaml:"severity"`
	MileageStart   int           `json:"mileage_start" yaml:"mileage_start"`
	MileageEnd     int           `json:"mileage_end" yaml:"mileage_end"`
	AffectedYears  []int         `json:"affected_years,omitempty" yaml:"affected_years"`
	RepairCostLow  int           `json:"repair_cost_low" yaml:"repair_cost_low"`
	RepairCostHigh int           `json:"repair_cost_high" yaml:"repair_cost_high"`
}

// AppliesTo reports whether the issue affects the given model year.  An empty
// affected-year list means every year.
func (k KnownIssue) AppliesTo(year int) bool {
	if len(k.AffectedYears) == 0 {
		return true
	}
	return k.AffectsYear(year)
}

// AffectsYear reports whether year is explicitly listed in AffectedYears.
func (k KnownIssue) AffectsYear(year int) bool {
	for _, y := range k.AffectedYears {
		if y == year {
			return true
		}
	}
	return false
}

// HighestSeverity returns the most severe issue severity in issues, or ""
// when the list is empty.
func HighestSeverity(issues []KnownIssue) IssueSeverity {
	var best IssueSeverity
	for _, i := range issues {
		if i.Severity.Rank() > best.Rank() {
			best = i.Severity
		}
	}
	return best
}

// FlagSeverity grades a listing red flag.
type FlagSeverity string

const (
	FlagCritical FlagSeverity = "critical"
	FlagHigh     FlagSeverity = "high"
	FlagMedium   FlagSeverity = "medium"
	FlagLow      FlagSeverity = "low"
)

// ParseFlagSeverity maps a string to a FlagSeverity.
func ParseFlagSeverity(s string) (FlagSeverity, bool) {
	switch FlagSeverity(strings.ToLower(strings.TrimSpace(s))) {
	case FlagCritical:
		return FlagCritical, true
	case FlagHigh:
		return FlagHigh, true
	case FlagMedium:
		return FlagMedium, true
	case FlagLow:
		return FlagLow, true
	}
	return "", false
}

// RedFlag is a listing-level warning extracted upstream.
type RedFlag struct {
	Severity    FlagSeverity `json:"severity"`
	Description string       `json:"description"`
}

// SellerType distinguishes private-party from dealer listings.
type SellerType string

const (
	SellerUnknown SellerType = ""
	SellerPrivate SellerType = "private"
	SellerDealer  SellerType = "dealer"
)

// ParseSellerType maps a string to a SellerType; unrecognized input is
// SellerUnknown.
func ParseSellerType(s string) SellerType {
	switch SellerType(strings.ToLower(strings.TrimSpace(s))) {
	case SellerPrivate:
		return SellerPrivate
	case SellerDealer:
		return SellerDealer
	}
	return SellerUnknown
}
