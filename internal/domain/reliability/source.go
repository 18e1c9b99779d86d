package reliability

// SourceKind names the branch of the Source union.
type SourceKind string

const (
	KindDatabase SourceKind = "database"
	KindDerived  SourceKind = "nhtsa_derived"
	KindDefault  SourceKind = "default"
)

// Source records where a reliability score came from.  It is a closed union:
// the only implementations are DatabaseSource, DerivedSource and
// DefaultSource, so callers switch on the concrete type.
//
//	switch src := res.Source.(type) {
//	case reliability.DatabaseSource:
//	case reliability.DerivedSource:
//	case reliability.DefaultSource:
//	}
type Source interface {
	Kind() SourceKind
	sealed()
}

// DatabaseSource marks a score built from the reliability database.
type DatabaseSource struct {
	Make           string `json:"make"`
	Model          string `json:"model"`
	CatalogVersion string `json:"catalog_version,omitempty"`
}

// DerivedSource marks a score derived from safety-registry data for a
// vehicle absent from the database.
type DerivedSource struct {
	ComplaintCount    int     `json:"complaint_count"`
	ComplaintsPerYear float64 `json:"complaints_per_year"`
	IncidentRate      float64 `json:"incident_rate"`
	Rated             bool    `json:"rated"`
}

// DefaultSource marks the neutral score used when nothing is known.
type DefaultSource struct{}

func (DatabaseSource) Kind() SourceKind { return KindDatabase }
func (DerivedSource) Kind() SourceKind  { return KindDerived }
func (DefaultSource) Kind() SourceKind  { return KindDefault }

func (DatabaseSource) sealed() {}
func (DerivedSource) sealed()  {}
func (DefaultSource) sealed()  {}
