// Package lifespan estimates how many total miles a vehicle can be expected
// to reach.  The Resolver derives a year-specific lifespan from the
// reference catalogue; AdjustLifespan then scales it by categorical
// condition factors; LongevityScore maps the remaining share onto 1-10.
package lifespan

import (
	"math"
	"strings"

	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

// DefaultLifespan is the expected lifespan, in miles, used when nothing
// better is known.
const DefaultLifespan = 200000

const (
	minMultiplier = 0.5
	maxMultiplier = 1.5
)

// ─────────────────────────────────────────────────────────────────────────────
// Factor enums.  The zero value of each is "unknown".
// ─────────────────────────────────────────────────────────────────────────────

type Transmission string

const (
	TransmissionUnknown   Transmission = ""
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
	TransmissionDCT       Transmission = "dct"
	TransmissionCVT       Transmission = "cvt"
)

type Drivetrain string

const (
	DrivetrainUnknown Drivetrain = ""
	DrivetrainFWD     Drivetrain = "fwd"
	DrivetrainRWD     Drivetrain = "rwd"
	DrivetrainAWD     Drivetrain = "awd"
	Drivetrain4WD     Drivetrain = "4wd"
)

type Engine string

const (
	EngineUnknown  Engine = ""
	EngineGasoline Engine = "gasoline"
	EngineTurbo    Engine = "turbo"
	EngineDiesel   Engine = "diesel"
	EngineHybrid   Engine = "hybrid"
	EngineElectric Engine = "electric"
)

type Maintenance string

const (
	MaintenanceUnknown   Maintenance = ""
	MaintenanceExcellent Maintenance = "excellent"
	MaintenanceGood      Maintenance = "good"
	MaintenanceAverage   Maintenance = "average"
	MaintenancePoor      Maintenance = "poor"
)

type Usage string

const (
	UsageUnknown Usage = ""
	UsageHighway Usage = "highway"
	UsageMixed   Usage = "mixed"
	UsageCity    Usage = "city"
	UsageSevere  Usage = "severe"
)

type Climate string

const (
	ClimateUnknown  Climate = ""
	ClimateMild     Climate = "mild"
	ClimateModerate Climate = "moderate"
	ClimateHot      Climate = "hot"
	ClimateCold     Climate = "cold"
	ClimateCoastal  Climate = "coastal"
	ClimateRustBelt Climate = "rust_belt"
)

type AccidentHistory string

const (
	AccidentUnknown  AccidentHistory = ""
	AccidentNone     AccidentHistory = "none"
	AccidentMinor    AccidentHistory = "minor"
	AccidentModerate AccidentHistory = "moderate"
	AccidentSevere   AccidentHistory = "severe"
)

type Ownership string

const (
	OwnershipUnknown   Ownership = ""
	OwnershipSingle    Ownership = "single"
	OwnershipTwo       Ownership = "two"
	OwnershipThreePlus Ownership = "three_plus"
	OwnershipFleet     Ownership = "fleet"
)

var (
	transmissionMultipliers = map[Transmission]float64{
		TransmissionManual: 1.08, TransmissionAutomatic: 1.00, TransmissionDCT: 0.95, TransmissionCVT: 0.85,
	}
	drivetrainMultipliers = map[Drivetrain]float64{
		DrivetrainFWD: 1.00, DrivetrainRWD: 1.02, DrivetrainAWD: 0.95, Drivetrain4WD: 0.97,
	}
	engineMultipliers = map[Engine]float64{
		EngineGasoline: 1.00, EngineTurbo: 0.92, EngineDiesel: 1.15, EngineHybrid: 1.10, EngineElectric: 1.20,
	}
	maintenanceMultipliers = map[Maintenance]float64{
		MaintenanceExcellent: 1.15, MaintenanceGood: 1.05, MaintenanceAverage: 1.00, MaintenancePoor: 0.80,
	}
	usageMultipliers = map[Usage]float64{
		UsageHighway: 1.10, UsageMixed: 1.00, UsageCity: 0.92, UsageSevere: 0.85,
	}
	climateMultipliers = map[Climate]float64{
		ClimateMild: 1.05, ClimateModerate: 1.00, ClimateHot: 0.95, ClimateCold: 0.95,
		ClimateCoastal: 0.92, ClimateRustBelt: 0.85,
	}
	accidentMultipliers = map[AccidentHistory]float64{
		AccidentNone: 1.00, AccidentMinor: 0.95, AccidentModerate: 0.85, AccidentSevere: 0.70,
	}
	ownershipMultipliers = map[Ownership]float64{
		OwnershipSingle: 1.08, OwnershipTwo: 1.00, OwnershipThreePlus: 0.93, OwnershipFleet: 0.90,
	}
)

// normalizeToken lower-cases s and folds spaces and dashes to underscores so
// "Rust Belt" and "rust-belt" both parse.
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// parseAxis returns the enum value named by s, or the zero (unknown) value
// when table has no such entry.
func parseAxis[K ~string](s string, table map[K]float64) K {
	v := K(normalizeToken(s))
	if _, ok := table[v]; ok {
		return v
	}
	var unknown K
	return unknown
}

func ParseTransmission(s string) Transmission { return parseAxis(s, transmissionMultipliers) }
func ParseDrivetrain(s string) Drivetrain     { return parseAxis(s, drivetrainMultipliers) }
func ParseEngine(s string) Engine             { return parseAxis(s, engineMultipliers) }
func ParseMaintenance(s string) Maintenance   { return parseAxis(s, maintenanceMultipliers) }
func ParseUsage(s string) Usage               { return parseAxis(s, usageMultipliers) }
func ParseClimate(s string) Climate           { return parseAxis(s, climateMultipliers) }
func ParseOwnership(s string) Ownership       { return parseAxis(s, ownershipMultipliers) }

func ParseAccidentHistory(s string) AccidentHistory {
	return parseAxis(s, accidentMultipliers)
}

// Factors is the set of categorical condition inputs.  Any field may be left
// unknown; unknown axes neither change the multiplier nor count toward
// confidence.
type Factors struct {
	Transmission    Transmission    `json:"transmission,omitempty"`
	Drivetrain      Drivetrain      `json:"drivetrain,omitempty"`
	Engine          Engine          `json:"engine,omitempty"`
	Maintenance     Maintenance     `json:"maintenance,omitempty"`
	Usage           Usage           `json:"usage,omitempty"`
	Climate         Climate         `json:"climate,omitempty"`
	AccidentHistory AccidentHistory `json:"accident_history,omitempty"`
	Ownership       Ownership       `json:"ownership,omitempty"`
}

// Normalize re-parses every axis so that free-form input (mixed case,
// unrecognized values) collapses onto the canonical enums.
func (f Factors) Normalize() Factors {
	return Factors{
		Transmission:    ParseTransmission(string(f.Transmission)),
		Drivetrain:      ParseDrivetrain(string(f.Drivetrain)),
		Engine:          ParseEngine(string(f.Engine)),
		Maintenance:     ParseMaintenance(string(f.Maintenance)),
		Usage:           ParseUsage(string(f.Usage)),
		Climate:         ParseClimate(string(f.Climate)),
		AccidentHistory: ParseAccidentHistory(string(f.AccidentHistory)),
		Ownership:       ParseOwnership(string(f.Ownership)),
	}
}

// Impact is the direction of an applied factor.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// AppliedFactor is one known axis and the multiplier it contributed.
type AppliedFactor struct {
	Category   string  `json:"category"`
	Value      string  `json:"value"`
	Multiplier float64 `json:"multiplier"`
	Impact     Impact  `json:"impact"`
}

// AdjustedLifespan is the result of AdjustLifespan.
type AdjustedLifespan struct {
	BaseLifespan     int                `json:"base_lifespan"`
	AdjustedLifespan int                `json:"adjusted_lifespan"`
	TotalMultiplier  float64            `json:"total_multiplier"`
	Factors          []AppliedFactor    `json:"factors"`
	Confidence       vehicle.Confidence `json:"confidence"`
}

// AdjustLifespan multiplies base by every known factor, clamps the product to
// [0.5, 1.5] and rounds the result to whole miles.  A non-positive base is
// replaced by DefaultLifespan.
func AdjustLifespan(base int, f Factors) AdjustedLifespan {
	if base <= 0 {
		base = DefaultLifespan
	}
	f = f.Normalize()

	applied := make([]AppliedFactor, 0, 8)
	applied = appendFactor(applied, "transmission", transmissionMultipliers, f.Transmission)
	applied = appendFactor(applied, "drivetrain", drivetrainMultipliers, f.Drivetrain)
	applied = appendFactor(applied, "engine", engineMultipliers, f.Engine)
	applied = appendFactor(applied, "maintenance", maintenanceMultipliers, f.Maintenance)
	applied = appendFactor(applied, "usage", usageMultipliers, f.Usage)
	applied = appendFactor(applied, "climate", climateMultipliers, f.Climate)
	applied = appendFactor(applied, "accident_history", accidentMultipliers, f.AccidentHistory)
	applied = appendFactor(applied, "ownership", ownershipMultipliers, f.Ownership)

	product := 1.0
	for _, a := range applied {
		product *= a.Multiplier
	}
	total := clampMultiplier(product)

	return AdjustedLifespan{
		BaseLifespan:     base,
		AdjustedLifespan: int(math.Round(float64(base) * total)),
		TotalMultiplier:  total,
		Factors:          applied,
		Confidence:       confidenceForKnownAxes(len(applied)),
	}
}

// RawMultiplier returns the unclamped product of all known factors.
func RawMultiplier(f Factors) float64 {
	product := 1.0
	for _, a := range AdjustLifespan(DefaultLifespan, f).Factors {
		product *= a.Multiplier
	}
	return product
}

func appendFactor[K ~string](dst []AppliedFactor, category string, table map[K]float64, v K) []AppliedFactor {
	m, ok := table[v]
	if !ok {
		return dst
	}
	return append(dst, AppliedFactor{
		Category:   category,
		Value:      string(v),
		Multiplier: m,
		Impact:     impactOf(m),
	})
}

func impactOf(m float64) Impact {
	switch {
	case m > 1:
		return ImpactPositive
	case m < 1:
		return ImpactNegative
	default:
		return ImpactNeutral
	}
}

func confidenceForKnownAxes(n int) vehicle.Confidence {
	switch {
	case n >= 5:
		return vehicle.ConfidenceHigh
	case n >= 2:
		return vehicle.ConfidenceMedium
	default:
		return vehicle.ConfidenceLow
	}
}

func clampMultiplier(m float64) float64 {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 1
	}
	return math.Max(minMultiplier, math.Min(maxMultiplier, m))
}
