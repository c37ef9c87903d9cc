// Package domain provides the domain model for the bibliometrics engine:
// organizational entities, research products, query parameters and the
// source-priority policies that reconcile multi-source attributes.
package domain

// Kind identifies the type of an organizational entity.
type Kind string

// Organizational entity kinds.
const (
	KindInstitution Kind = "institution"
	KindFaculty     Kind = "faculty"
	KindDepartment  Kind = "department"
	KindGroup       Kind = "group"
	KindPerson      Kind = "person"
)

// IsAffiliation reports whether the kind is an organizational affiliation
// (anything in the hierarchy except a person).
func (k Kind) IsAffiliation() bool {
	switch k {
	case KindInstitution, KindFaculty, KindDepartment, KindGroup:
		return true
	}
	return false
}

// RelationKind identifies the type of a hierarchy relation edge.
// Department and faculty nodes reference their parent institution with
// RelationEducation; groups reference their owner with RelationGroup.
type RelationKind string

// Hierarchy relation kinds.
const (
	RelationGroup      RelationKind = "group"
	RelationDepartment RelationKind = "department"
	RelationFaculty    RelationKind = "faculty"
	RelationEducation  RelationKind = "education"
)

// TypedValue is a provenance-tagged classification value. The same shape is
// used for entity types, relation types and product types.
type TypedValue struct {
	Source string `bson:"source" json:"source"`
	Type   string `bson:"type" json:"type"`
}

// LocalizedName is a provenance-tagged display name in a given language.
type LocalizedName struct {
	Name   string `bson:"name" json:"name"`
	Lang   string `bson:"lang" json:"lang"`
	Source string `bson:"source" json:"source"`
}

// ExternalID is an identifier assigned by one provenance source.
type ExternalID struct {
	ID     string `bson:"id" json:"id"`
	Source string `bson:"source" json:"source"`
}

// ExternalURL is a resolvable link contributed by one provenance source.
type ExternalURL struct {
	URL    string `bson:"url" json:"url"`
	Source string `bson:"source" json:"source"`
}

// SourceCount is a per-source counter value. Counters from independent
// sources are never summed; see metrics.ReconcileCounts.
type SourceCount struct {
	Source string `bson:"source" json:"source"`
	Count  int    `bson:"count" json:"count"`
}

// YearCount is a per-year counter value (e.g. citations received in a year).
type YearCount struct {
	Year  int `bson:"year" json:"year"`
	Count int `bson:"count" json:"count"`
}

// Relation is a directed hierarchy edge from the owning entity to Target.
type Relation struct {
	ID    string       `bson:"id" json:"id"`
	Name  string       `bson:"name,omitempty" json:"name,omitempty"`
	Types []TypedValue `bson:"types,omitempty" json:"types,omitempty"`
}

// HasKind reports whether any of the relation's type tags matches kind.
func (r Relation) HasKind(kind RelationKind) bool {
	for _, t := range r.Types {
		if RelationKind(t.Type) == kind {
			return true
		}
	}
	return false
}

// Address holds the geographic location of an affiliation.
type Address struct {
	Country     string  `bson:"country,omitempty" json:"country,omitempty"`
	CountryCode string  `bson:"country_code,omitempty" json:"country_code,omitempty"`
	City        string  `bson:"city,omitempty" json:"city,omitempty"`
	State       string  `bson:"state,omitempty" json:"state,omitempty"`
	Lat         float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng         float64 `bson:"lng,omitempty" json:"lng,omitempty"`
}

// Affiliation is an organizational node in the hierarchy: institution,
// faculty, department or research group. Ownership and mutation belong to the
// external ingestion pipeline; the engine is read-only over it.
type Affiliation struct {
	ID             string          `bson:"_id" json:"id"`
	Names          []LocalizedName `bson:"names,omitempty" json:"names,omitempty"`
	Types          []TypedValue    `bson:"types,omitempty" json:"types,omitempty"`
	Relations      []Relation      `bson:"relations,omitempty" json:"relations,omitempty"`
	Addresses      []Address       `bson:"addresses,omitempty" json:"addresses,omitempty"`
	ExternalIDs    []ExternalID    `bson:"external_ids,omitempty" json:"external_ids,omitempty"`
	ExternalURLs   []ExternalURL   `bson:"external_urls,omitempty" json:"external_urls,omitempty"`
	CitationsCount []SourceCount   `bson:"citations_count,omitempty" json:"citations_count,omitempty"`
	ProductsCount  *int64          `bson:"products_count,omitempty" json:"products_count,omitempty"`
}

// Kind returns the affiliation's entity kind based on its first type tag.
func (a Affiliation) Kind() Kind {
	if len(a.Types) == 0 {
		return ""
	}
	return Kind(a.Types[0].Type)
}

// DisplayName returns the Spanish name when one exists, otherwise the first
// recorded name. Display defaults follow the primary audience of the data.
func (a Affiliation) DisplayName() string {
	for _, n := range a.Names {
		if n.Lang == "es" {
			return n.Name
		}
	}
	if len(a.Names) > 0 {
		return a.Names[0].Name
	}
	return ""
}

// InstitutionID returns the id of the parent institution referenced via an
// education relation edge, or the empty string when none exists. Institution
// identity is the stable correctness check for derived-membership traversal.
func (a Affiliation) InstitutionID() string {
	for _, r := range a.Relations {
		if r.HasKind(RelationEducation) {
			return r.ID
		}
	}
	return ""
}

// Membership is a time-bounded affiliation of a person. Dates are Unix
// timestamps; zero means unknown/open-ended.
type Membership struct {
	ID        string       `bson:"id" json:"id"`
	Name      string       `bson:"name,omitempty" json:"name,omitempty"`
	Types     []TypedValue `bson:"types,omitempty" json:"types,omitempty"`
	StartDate int64        `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   int64        `bson:"end_date,omitempty" json:"end_date,omitempty"`
}

// HasKind reports whether any of the membership's type tags matches kind.
func (m Membership) HasKind(kind RelationKind) bool {
	for _, t := range m.Types {
		if RelationKind(t.Type) == kind {
			return true
		}
	}
	return false
}

// Person is a researcher. Cached counters (ProductsCount, CitationsCount) are
// lazily materialized derived values: absence means "compute on demand",
// never zero.
type Person struct {
	ID             string        `bson:"_id" json:"id"`
	FullName       string        `bson:"full_name" json:"full_name"`
	FirstNames     []string      `bson:"first_names,omitempty" json:"first_names,omitempty"`
	LastNames      []string      `bson:"last_names,omitempty" json:"last_names,omitempty"`
	Affiliations   []Membership  `bson:"affiliations,omitempty" json:"affiliations,omitempty"`
	ExternalIDs    []ExternalID  `bson:"external_ids,omitempty" json:"external_ids,omitempty"`
	CitationsCount []SourceCount `bson:"citations_count,omitempty" json:"citations_count,omitempty"`
	ProductsCount  *int64        `bson:"products_count,omitempty" json:"products_count,omitempty"`
}

// Privacy-sensitive identifier sources excluded from public person output.
var privateIDSources = map[string]bool{
	"Cédula de Ciudadanía":  true,
	"Cédula de Extranjería": true,
	"Passport":              true,
}

// PublicExternalIDs returns the person's external ids with privacy-sensitive
// identifier sources removed.
func (p Person) PublicExternalIDs() []ExternalID {
	out := make([]ExternalID, 0, len(p.ExternalIDs))
	for _, id := range p.ExternalIDs {
		if privateIDSources[id.Source] {
			continue
		}
		out = append(out, id)
	}
	return out
}
