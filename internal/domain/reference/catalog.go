// Package reference holds the immutable reference catalogue the valuation
// engine reads: the reliability database with per-model known issues and
// avoid-years, the MSRP table, per-category depreciation curves and brand
// retention multipliers.
//
// A Catalog is built once per process (embedded YAML or an operator-supplied
// file) and is read-only afterwards, so it is safe for concurrent use.
package reference

import (
	"sort"
	"strings"

	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

// Category is a price category used by the depreciation model.
type Category string

const (
	CategoryEconomy  Category = "economy"
	CategoryCompact  Category = "compact"
	CategoryMidsize  Category = "midsize"
	CategoryFullsize Category = "fullsize"
	CategoryLuxury   Category = "luxury"
	CategorySports   Category = "sports"
	CategorySUV      Category = "suv"
	CategoryTruck    Category = "truck"
	CategoryMinivan  Category = "minivan"
	CategoryElectric Category = "electric"
)

// VehicleRecord is one entry of the reliability database.
type VehicleRecord struct {
	Make         string               `json:"make"`
	Model        string               `json:"model"`
	BaseScore    float64              `json:"base_score"`
	BaseLifespan int                  `json:"base_lifespan"`
	AvoidYears   []int                `json:"avoid_years,omitempty"`
	KnownIssues  []vehicle.KnownIssue `json:"known_issues,omitempty"`
}

// IsAvoidYear reports whether year is on the model's avoid list.
func (r VehicleRecord) IsAvoidYear(year int) bool {
	for _, y := range r.AvoidYears {
		if y == year {
			return true
		}
	}
	return false
}

// IssuesForYear returns the known issues that apply to year, including
// issues with no year scoping.
func (r VehicleRecord) IssuesForYear(year int) []vehicle.KnownIssue {
	var out []vehicle.KnownIssue
	for _, ki := range r.KnownIssues {
		if ki.AppliesTo(year) {
			out = append(out, ki)
		}
	}
	return out
}

// MSRPEntry is one row of the MSRP table.
type MSRPEntry struct {
	Key      string   `json:"key"`
	MSRP     int      `json:"msrp"`
	Category Category `json:"category"`
}

// Curve is a category depreciation curve.
type Curve struct {
	Rates         []float64 `json:"rates"`
	Floor         float64   `json:"floor"`
	AbsoluteFloor int       `json:"absolute_floor"`
}

// RateForYear returns the retention rate applied during year i (0-based).
// Past the end of the curve the last rate repeats.
func (c Curve) RateForYear(i int) float64 {
	if len(c.Rates) == 0 {
		return 1
	}
	if i < 0 {
		i = 0
	}
	if i >= len(c.Rates) {
		return c.Rates[len(c.Rates)-1]
	}
	return c.Rates[i]
}

// Defaults are the catalogue-wide fallbacks for unknown vehicles.
type Defaults struct {
	Lifespan int
	MSRP     int
	Category Category
}

// Catalog is the loaded, indexed reference data.
type Catalog struct {
	version        string
	defaults       Defaults
	maxAge         int
	vehicles       map[string]VehicleRecord
	msrp           map[string]MSRPEntry
	msrpKeys       []string
	curves         map[Category]Curve
	brandRetention map[string]float64
}

// Version returns the catalogue's data version string.
func (c *Catalog) Version() string { return c.version }

// Defaults returns the catalogue-wide fallbacks.
func (c *Catalog) Defaults() Defaults { return c.defaults }

// MaxAge returns the maximum vehicle age the depreciation model applies.
func (c *Catalog) MaxAge() int { return c.maxAge }

// VehicleCount returns the number of reliability records.
func (c *Catalog) VehicleCount() int { return len(c.vehicles) }

// Vehicle looks up a reliability record by make and model.  Trailing model
// tokens (trim levels) are dropped one at a time until a record matches, so
// "Camry LE" resolves to "camry".
func (c *Catalog) Vehicle(mk, model string) (VehicleRecord, bool) {
	key := vehicle.LookupKey(mk, model)
	for {
		if rec, ok := c.vehicles[key]; ok {
			return rec, true
		}
		next, ok := dropLastToken(key, vehicle.NormalizeMake(mk))
		if !ok {
			return VehicleRecord{}, false
		}
		key = next
	}
}

// MSRP looks up the MSRP row for make and model.  The exact normalized key is
// tried first, then trailing trim tokens are dropped one at a time, then the
// longest catalogue key that prefixes the query wins.  ok is false when
// nothing matched.
func (c *Catalog) MSRP(mk, model string) (MSRPEntry, bool) {
	query := vehicle.LookupKey(mk, model)
	makeKey := vehicle.NormalizeMake(mk)

	key := query
	for {
		if e, ok := c.msrp[key]; ok {
			return e, true
		}
		next, ok := dropLastToken(key, makeKey)
		if !ok {
			break
		}
		key = next
	}

	// msrpKeys is sorted longest first.
	for _, k := range c.msrpKeys {
		if strings.HasPrefix(query, k) && strings.HasPrefix(k, makeKey+" ") {
			return c.msrp[k], true
		}
	}
	return MSRPEntry{}, false
}

// Curve returns the depreciation curve for cat, falling back to the default
// category's curve.
func (c *Catalog) Curve(cat Category) Curve {
	if cv, ok := c.curves[cat]; ok {
		return cv
	}
	return c.curves[c.defaults.Category]
}

// BrandRetention returns the resale multiplier for a make (1.0 when the
// brand is not listed).
func (c *Catalog) BrandRetention(mk string) float64 {
	if m, ok := c.brandRetention[vehicle.NormalizeMake(mk)]; ok {
		return m
	}
	return 1.0
}

// dropLastToken removes the final space-separated token of key, refusing to
// shorten the key down to the make alone.
func dropLastToken(key, makeKey string) (string, bool) {
	i := strings.LastIndex(key, " ")
	if i <= 0 {
		return "", false
	}
	next := key[:i]
	if next == makeKey || len(next) < len(makeKey) {
		return "", false
	}
	return next, true
}

func sortKeysLongestFirst(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
}
