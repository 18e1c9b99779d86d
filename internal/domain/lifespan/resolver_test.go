package lifespan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/carverdict/internal/domain/reference"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

func TestResolve_KnownVehicle(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		name        string
		id          vehicle.Identity
		wantAdj     int
		wantMult    float64
		wantConf    vehicle.Confidence
		adjustments int
	}{
		{"avoid year with major issue", vehicle.Identity{Make: "Toyota", Model: "Camry", Year: 2008}, 202500, 0.81, vehicle.ConfidenceHigh, 2},
		{"clean mid era", vehicle.Identity{Make: "Toyota", Model: "Camry", Year: 2012}, 250000, 1.0, vehicle.ConfidenceMedium, 0},
		{"modern era", vehicle.Identity{Make: "Toyota", Model: "Camry", Year: 2021}, 262500, 1.05, vehicle.ConfidenceMedium, 1},
		{"critical dct", vehicle.Identity{Make: "Ford", Model: "Focus", Year: 2014}, 129600, 0.72, vehicle.ConfidenceHigh, 2},
		{"legacy era critical", vehicle.Identity{Make: "Honda", Model: "Civic", Year: 2003}, 164160, 0.684, vehicle.ConfidenceHigh, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.id)
			assert.Equal(t, SourceDatabase, got.Source)
			assert.Equal(t, tt.wantAdj, got.AdjustedLifespan)
			assert.InDelta(t, tt.wantMult, got.TotalMultiplier, 1e-9)
			assert.Equal(t, tt.wantConf, got.Confidence)
			assert.Len(t, got.Adjustments, tt.adjustments)
		})
	}
}

func TestResolve_KnownIssuesForYear(t *testing.T) {
	r := NewResolver(nil)

	got := r.Resolve(vehicle.Identity{Make: "Nissan", Model: "Altima", Year: 2015})
	require.Len(t, got.KnownIssues, 1)
	assert.Equal(t, vehicle.IssueCritical, got.KnownIssues[0].Severity)

	// The Prius battery issue is not year scoped: it is reported but does
	// not shorten the year-specific lifespan.
	prius := r.Resolve(vehicle.Identity{Make: "Toyota", Model: "Prius", Year: 2008})
	require.Len(t, prius.KnownIssues, 1)
	assert.Equal(t, "hybrid battery", prius.KnownIssues[0].Component)
	assert.Equal(t, 250000, prius.AdjustedLifespan)
}

func TestResolve_UnknownVehicle(t *testing.T) {
	got := NewResolver(nil).Resolve(vehicle.Identity{Make: "Yugo", Model: "GV", Year: 1988})
	assert.Equal(t, SourceDefault, got.Source)
	assert.Equal(t, DefaultLifespan, got.AdjustedLifespan)
	assert.Equal(t, vehicle.ConfidenceLow, got.Confidence)
	assert.NotNil(t, got.Adjustments)
	assert.Empty(t, got.Adjustments)
}

func TestResolve_ClampsStackedPenalties(t *testing.T) {
	doc := `
vehicles:
  - make: acme
    model: lemon
    reliability: 3
    lifespan: 200000
    avoid_years: [2001]
    known_issues:
      - {component: engine, severity: critical, affected_years: [2001]}
      - {component: transmission, severity: critical, affected_years: [2001]}
      - {component: frame, severity: critical, affected_years: [2001]}
      - {component: brakes, severity: critical, affected_years: [2001]}
depreciation:
  curves:
    midsize: {rates: [0.9], floor: 0.1}
`
	cat, err := reference.Parse([]byte(doc))
	require.NoError(t, err)

	got := NewResolver(cat).Resolve(vehicle.Identity{Make: "Acme", Model: "Lemon", Year: 2001})
	assert.Equal(t, 0.5, got.TotalMultiplier)
	assert.Equal(t, 100000, got.AdjustedLifespan)
	assert.Len(t, got.Adjustments, 6)
}

func TestResolve_CacheDoesNotChangeResults(t *testing.T) {
	var hits, misses int
	cache := NewMemoryCache(16)
	warm := NewResolver(nil, WithCache(cache), WithCacheObserver(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}))
	cold := NewResolver(nil, WithCache(nil))

	ids := []vehicle.Identity{
		{Make: "Toyota", Model: "Camry", Year: 2008},
		{Make: "toyota", Model: "CAMRY", Year: 2008},
		{Make: "Yugo", Model: "GV", Year: 1988},
	}
	for round := 0; round < 3; round++ {
		for _, id := range ids {
			assert.Equal(t, cold.Resolve(id), warm.Resolve(id))
		}
	}
	assert.Equal(t, 2, misses, "normalized keys share one entry")
	assert.Equal(t, 7, hits)
	assert.Equal(t, 2, cache.Len())
}

func TestResolve_ConcurrentUse(t *testing.T) {
	r := NewResolver(nil, WithCache(NewMemoryCache(8)))
	want := NewResolver(nil).Resolve(vehicle.Identity{Make: "Ford", Model: "Focus", Year: 2014})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := r.Resolve(vehicle.Identity{Make: "Ford", Model: "Focus", Year: 2014})
				assert.Equal(t, want.AdjustedLifespan, got.AdjustedLifespan)
			}
		}()
	}
	wg.Wait()
}

type computingCache struct {
	*MemoryCache
	computes int
	gets     int
}

func (c *computingCache) GetOrCompute(key string, compute func() YearLifespan) (YearLifespan, bool) {
	if v, ok := c.MemoryCache.Get(key); ok {
		return v, true
	}
	c.computes++
	v := compute()
	c.MemoryCache.Set(key, v)
	return v, false
}

func (c *computingCache) Get(key string) (YearLifespan, bool) {
	c.gets++
	return c.MemoryCache.Get(key)
}

func TestResolve_UsesComputeCache(t *testing.T) {
	cache := &computingCache{MemoryCache: NewMemoryCache(8)}
	var hits, misses int
	r := NewResolver(nil, WithCache(cache), WithCacheObserver(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}))
	id := vehicle.Identity{Make: "Toyota", Model: "Camry", Year: 2008}
	want := NewResolver(nil).Resolve(id)

	for i := 0; i < 3; i++ {
		assert.Equal(t, want, r.Resolve(id))
	}
	assert.Equal(t, 1, cache.computes)
	assert.Zero(t, cache.gets, "plain Get is bypassed")
	assert.Equal(t, 1, misses)
	assert.Equal(t, 2, hits)
}
