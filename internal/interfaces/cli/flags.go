package cli

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/carverdict/internal/domain/lifespan"
	"github.com/turtacn/carverdict/pkg/errors"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

type identityFlags struct {
	make    string
	model   string
	year    int
	mileage int
}

func (f *identityFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.make, "make", "", "vehicle make, e.g. Toyota [REQUIRED]")
	fs.StringVar(&f.model, "model", "", "vehicle model, e.g. Camry [REQUIRED]")
	fs.IntVar(&f.year, "year", 0, "model year [REQUIRED]")
	fs.IntVar(&f.mileage, "mileage", 0, "current odometer reading in miles")
}

func (f *identityFlags) identity() vehicle.Identity {
	return vehicle.Identity{Make: f.make, Model: f.model, Year: f.year}
}

type factorFlags struct {
	transmission string
	drivetrain   string
	engine       string
	maintenance  string
	usage        string
	climate      string
	accidents    string
	ownership    string
}

func (f *factorFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.transmission, "transmission", "", "manual, automatic, dct or cvt")
	fs.StringVar(&f.drivetrain, "drivetrain", "", "fwd, rwd, awd or 4wd")
	fs.StringVar(&f.engine, "engine", "", "gasoline, turbo, diesel, hybrid or electric")
	fs.StringVar(&f.maintenance, "maintenance", "", "excellent, good, average or poor")
	fs.StringVar(&f.usage, "usage", "", "highway, mixed, city or severe")
	fs.StringVar(&f.climate, "climate", "", "mild, moderate, hot, cold, coastal or rust_belt")
	fs.StringVar(&f.accidents, "accidents", "", "none, minor, moderate or severe")
	fs.StringVar(&f.ownership, "ownership", "", "single, two, three_plus or fleet")
}

func (f *factorFlags) factors() lifespan.Factors {
	return lifespan.Factors{
		Transmission:    lifespan.ParseTransmission(f.transmission),
		Drivetrain:      lifespan.ParseDrivetrain(f.drivetrain),
		Engine:          lifespan.ParseEngine(f.engine),
		Maintenance:     lifespan.ParseMaintenance(f.maintenance),
		Usage:           lifespan.ParseUsage(f.usage),
		Climate:         lifespan.ParseClimate(f.climate),
		AccidentHistory: lifespan.ParseAccidentHistory(f.accidents),
		Ownership:       lifespan.ParseOwnership(f.ownership),
	}
}

// parseRedFlags turns "severity:description" values into red flags.
func parseRedFlags(values []string) ([]vehicle.RedFlag, error) {
	flags := make([]vehicle.RedFlag, 0, len(values))
	for _, v := range values {
		sevText, desc, _ := strings.Cut(v, ":")
		sev, ok := vehicle.ParseFlagSeverity(sevText)
		if !ok {
			return nil, errors.InvalidParam("red flag must be severity:description with severity critical, high, medium or low").
				WithDetail("red-flag=" + v)
		}
		flags = append(flags, vehicle.RedFlag{Severity: sev, Description: strings.TrimSpace(desc)})
	}
	return flags, nil
}

// readComplaints loads a JSON or YAML array of safety-registry complaints.
func readComplaints(path string) ([]vehicle.Complaint, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "failed to read complaints file").WithDetail("path=" + path)
	}
	var out []vehicle.Complaint
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidComplaint, "failed to parse complaints file").WithDetail("path=" + path)
	}
	return out, nil
}

func optionalFloat(fs *pflag.FlagSet, name string, v float64) *float64 {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}
