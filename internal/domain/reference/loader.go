package reference

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/carverdict/pkg/errors"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

//go:embed data/catalog.yaml
var embedded embed.FS

const embeddedPath = "data/catalog.yaml"

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// document mirrors the YAML layout of a catalogue file.
type document struct {
	Version  string `yaml:"version"`
	Defaults struct {
		Lifespan int    `yaml:"lifespan"`
		MSRP     int    `yaml:"msrp"`
		Category string `yaml:"category"`
	} `yaml:"defaults"`
	Vehicles []struct {
		Make        string               `yaml:"make"`
		Model       string               `yaml:"model"`
		Reliability float64              `yaml:"reliability"`
		Lifespan    int                  `yaml:"lifespan"`
		AvoidYears  []int                `yaml:"avoid_years"`
		KnownIssues []vehicle.KnownIssue `yaml:"known_issues"`
	} `yaml:"vehicles"`
	MSRP []struct {
		Key      string `yaml:"key"`
		MSRP     int    `yaml:"msrp"`
		Category string `yaml:"category"`
	} `yaml:"msrp"`
	Depreciation struct {
		MaxAge int `yaml:"max_age"`
		Curves map[string]struct {
			Rates         []float64 `yaml:"rates"`
			Floor         float64   `yaml:"floor"`
			AbsoluteFloor int       `yaml:"absolute_floor"`
		} `yaml:"curves"`
	} `yaml:"depreciation"`
	BrandRetention map[string]float64 `yaml:"brand_retention"`
}

// Default returns the catalogue built from the embedded data.  It is parsed
// once per process.  The embedded data is validated by tests, so a failure
// here is a build defect and panics.
func Default() *Catalog {
	defaultOnce.Do(func() {
		var raw []byte
		raw, defaultErr = embedded.ReadFile(embeddedPath)
		if defaultErr == nil {
			defaultCatalog, defaultErr = Parse(raw)
		}
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("reference: embedded catalogue is invalid: %v", defaultErr))
	}
	return defaultCatalog
}

// Load returns the catalogue at path, or the embedded default when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReferenceDataError, "failed to read reference data").
			WithDetail("path=" + path)
	}
	cat, err := Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReferenceDataError, "failed to load reference data").
			WithDetail("path=" + path)
	}
	return cat, nil
}

// Parse decodes and validates a YAML catalogue document.
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeReferenceDataError, "malformed reference data")
	}

	c := &Catalog{
		version: doc.Version,
		defaults: Defaults{
			Lifespan: doc.Defaults.Lifespan,
			MSRP:     doc.Defaults.MSRP,
			Category: Category(strings.ToLower(doc.Defaults.Category)),
		},
		maxAge:         doc.Depreciation.MaxAge,
		vehicles:       make(map[string]VehicleRecord, len(doc.Vehicles)),
		msrp:           make(map[string]MSRPEntry, len(doc.MSRP)),
		curves:         make(map[Category]Curve, len(doc.Depreciation.Curves)),
		brandRetention: make(map[string]float64, len(doc.BrandRetention)),
	}
	if c.defaults.Lifespan <= 0 {
		c.defaults.Lifespan = 200000
	}
	if c.defaults.MSRP <= 0 {
		c.defaults.MSRP = 30000
	}
	if c.defaults.Category == "" {
		c.defaults.Category = CategoryMidsize
	}
	if c.maxAge <= 0 {
		c.maxAge = 20
	}

	for i, v := range doc.Vehicles {
		if strings.TrimSpace(v.Make) == "" || strings.TrimSpace(v.Model) == "" {
			return nil, invalid("vehicles[%d]: make and model are required", i)
		}
		if v.Reliability < 1 || v.Reliability > 10 {
			return nil, invalid("vehicles[%d] %s %s: reliability %.1f outside [1,10]", i, v.Make, v.Model, v.Reliability)
		}
		if v.Lifespan <= 0 {
			return nil, invalid("vehicles[%d] %s %s: lifespan must be positive", i, v.Make, v.Model)
		}
		for j, ki := range v.KnownIssues {
			if ki.Severity.Rank() == 0 {
				return nil, invalid("vehicles[%d].known_issues[%d]: unknown severity %q", i, j, ki.Severity)
			}
		}
		key := vehicle.LookupKey(v.Make, v.Model)
		if _, dup := c.vehicles[key]; dup {
			return nil, invalid("duplicate vehicle %q", key)
		}
		c.vehicles[key] = VehicleRecord{
			Make:         vehicle.NormalizeMake(v.Make),
			Model:        vehicle.NormalizeModel(v.Model),
			BaseScore:    v.Reliability,
			BaseLifespan: v.Lifespan,
			AvoidYears:   v.AvoidYears,
			KnownIssues:  v.KnownIssues,
		}
	}

	for name, cv := range doc.Depreciation.Curves {
		if len(cv.Rates) == 0 {
			return nil, invalid("curve %q has no rates", name)
		}
		for _, r := range cv.Rates {
			if r <= 0 || r > 1 {
				return nil, invalid("curve %q: rate %.3f outside (0,1]", name, r)
			}
		}
		if cv.Floor <= 0 || cv.Floor >= 1 {
			return nil, invalid("curve %q: floor %.3f outside (0,1)", name, cv.Floor)
		}
		c.curves[Category(strings.ToLower(name))] = Curve{
			Rates:         cv.Rates,
			Floor:         cv.Floor,
			AbsoluteFloor: cv.AbsoluteFloor,
		}
	}
	if _, ok := c.curves[c.defaults.Category]; !ok {
		return nil, invalid("no depreciation curve for default category %q", c.defaults.Category)
	}

	for i, m := range doc.MSRP {
		key := strings.Join(strings.Fields(strings.ToLower(m.Key)), " ")
		if key == "" || m.MSRP <= 0 {
			return nil, invalid("msrp[%d]: key and positive msrp are required", i)
		}
		cat := Category(strings.ToLower(m.Category))
		if _, ok := c.curves[cat]; !ok {
			return nil, invalid("msrp[%d] %q: unknown category %q", i, key, m.Category)
		}
		c.msrp[key] = MSRPEntry{Key: key, MSRP: m.MSRP, Category: cat}
		c.msrpKeys = append(c.msrpKeys, key)
	}
	sortKeysLongestFirst(c.msrpKeys)

	for brand, mult := range doc.BrandRetention {
		if mult <= 0 {
			return nil, invalid("brand_retention %q must be positive", brand)
		}
		c.brandRetention[vehicle.NormalizeMake(brand)] = mult
	}

	return c, nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Newf(errors.CodeReferenceDataError, format, args...)
}
