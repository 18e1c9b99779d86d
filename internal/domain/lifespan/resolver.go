package lifespan

import (
	"fmt"
	"math"

	"github.com/turtacn/carverdict/internal/domain/reference"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

// Source records whether a year lifespan came from the catalogue.
type Source string

const (
	SourceDatabase Source = "database"
	SourceDefault  Source = "default"
)

const (
	avoidYearMultiplier = 0.90

	eraModernFrom  = 2020
	eraRecentFrom  = 2015
	eraLegacyUntil = 2005
)

var issueMultipliers = map[vehicle.IssueSeverity]float64{
	vehicle.IssueCritical: 0.80,
	vehicle.IssueMajor:    0.90,
	vehicle.IssueModerate: 0.95,
	vehicle.IssueMinor:    0.98,
}

// YearAdjustment is one multiplicative year-specific adjustment.
type YearAdjustment struct {
	Reason     string  `json:"reason"`
	Multiplier float64 `json:"multiplier"`
}

// YearLifespan is the year-specific lifespan for a make/model/year.
// KnownIssues lists the catalogued issues that apply to the model year,
// including issues that are not year-scoped.
type YearLifespan struct {
	Make             string               `json:"make"`
	Model            string               `json:"model"`
	Year             int                  `json:"year"`
	BaseLifespan     int                  `json:"base_lifespan"`
	AdjustedLifespan int                  `json:"adjusted_lifespan"`
	TotalMultiplier  float64              `json:"total_multiplier"`
	Adjustments      []YearAdjustment     `json:"adjustments"`
	KnownIssues      []vehicle.KnownIssue `json:"known_issues,omitempty"`
	Source           Source               `json:"source"`
	Confidence       vehicle.Confidence   `json:"confidence"`
}

// CacheObserver is told whether each Resolve call was served from cache.
type CacheObserver func(hit bool)

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache sets the memoization cache.  nil selects NopCache.
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) {
		if c == nil {
			c = NopCache{}
		}
		r.cache = c
	}
}

// WithCacheObserver registers a hit/miss callback.
func WithCacheObserver(fn CacheObserver) ResolverOption {
	return func(r *Resolver) { r.observe = fn }
}

// Resolver derives year-specific lifespans from the reference catalogue.
type Resolver struct {
	catalog *reference.Catalog
	cache   Cache
	observe CacheObserver
}

// NewResolver returns a Resolver over catalog (the embedded default when
// nil).  Without WithCache results are not memoized.
func NewResolver(catalog *reference.Catalog, opts ...ResolverOption) *Resolver {
	if catalog == nil {
		catalog = reference.Default()
	}
	r := &Resolver{catalog: catalog, cache: NopCache{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the year lifespan for id.  It never fails; vehicles absent
// from the catalogue get the default lifespan with low confidence.
func (r *Resolver) Resolve(id vehicle.Identity) YearLifespan {
	key := id.Key()
	if cc, ok := r.cache.(ComputeCache); ok {
		v, hit := cc.GetOrCompute(key, func() YearLifespan { return r.compute(id) })
		r.notify(hit)
		return v
	}
	if v, ok := r.cache.Get(key); ok {
		r.notify(true)
		return v
	}
	r.notify(false)

	v := r.compute(id)
	r.cache.Set(key, v)
	return v
}

func (r *Resolver) notify(hit bool) {
	if r.observe != nil {
		r.observe(hit)
	}
}

func (r *Resolver) compute(id vehicle.Identity) YearLifespan {
	rec, ok := r.catalog.Vehicle(id.Make, id.Model)
	if !ok {
		def := r.catalog.Defaults().Lifespan
		return YearLifespan{
			Make:             vehicle.NormalizeMake(id.Make),
			Model:            vehicle.NormalizeModel(id.Model),
			Year:             id.Year,
			BaseLifespan:     def,
			AdjustedLifespan: def,
			TotalMultiplier:  1,
			Adjustments:      []YearAdjustment{},
			Source:           SourceDefault,
			Confidence:       vehicle.ConfidenceLow,
		}
	}

	var adjustments []YearAdjustment
	yearSpecific := false

	if rec.IsAvoidYear(id.Year) {
		adjustments = append(adjustments, YearAdjustment{
			Reason:     fmt.Sprintf("model year %d is on the avoid list", id.Year),
			Multiplier: avoidYearMultiplier,
		})
		yearSpecific = true
	}
	for _, ki := range rec.KnownIssues {
		if !ki.AffectsYear(id.Year) {
			continue
		}
		m, ok := issueMultipliers[ki.Severity]
		if !ok {
			continue
		}
		adjustments = append(adjustments, YearAdjustment{
			Reason:     fmt.Sprintf("%s known issue: %s", ki.Severity, ki.Component),
			Multiplier: m,
		})
		yearSpecific = true
	}
	if era, ok := eraAdjustment(id.Year); ok {
		adjustments = append(adjustments, era)
	}

	product := 1.0
	for _, a := range adjustments {
		product *= a.Multiplier
	}
	total := clampMultiplier(product)

	conf := vehicle.ConfidenceMedium
	if yearSpecific {
		conf = vehicle.ConfidenceHigh
	}
	if adjustments == nil {
		adjustments = []YearAdjustment{}
	}

	return YearLifespan{
		Make:             rec.Make,
		Model:            rec.Model,
		Year:             id.Year,
		BaseLifespan:     rec.BaseLifespan,
		AdjustedLifespan: int(math.Round(float64(rec.BaseLifespan) * total)),
		TotalMultiplier:  total,
		Adjustments:      adjustments,
		KnownIssues:      rec.IssuesForYear(id.Year),
		Source:           SourceDatabase,
		Confidence:       conf,
	}
}

func eraAdjustment(year int) (YearAdjustment, bool) {
	switch {
	case year >= eraModernFrom:
		return YearAdjustment{Reason: "modern era (2020+)", Multiplier: 1.05}, true
	case year >= eraRecentFrom:
		return YearAdjustment{Reason: "recent era (2015-2019)", Multiplier: 1.02}, true
	case year < eraLegacyUntil:
		return YearAdjustment{Reason: "legacy era (pre-2005)", Multiplier: 0.95}, true
	}
	return YearAdjustment{}, false
}
