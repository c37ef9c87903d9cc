package domain

// ProductKind identifies one of the four research product collections.
type ProductKind string

// Research product kinds.
const (
	ProductWork      ProductKind = "work"
	ProductPatent    ProductKind = "patent"
	ProductProject   ProductKind = "project"
	ProductOtherWork ProductKind = "other_work"
)

// Collection returns the store collection name backing the product kind.
func (k ProductKind) Collection() string {
	switch k {
	case ProductWork:
		return CollectionWorks
	case ProductPatent:
		return CollectionPatents
	case ProductProject:
		return CollectionProjects
	case ProductOtherWork:
		return CollectionOtherWorks
	}
	return ""
}

// Valid reports whether k names a known product kind.
func (k ProductKind) Valid() bool {
	return k.Collection() != ""
}

// Store collection names owned by the ingestion pipeline's schema.
const (
	CollectionPersons      = "person"
	CollectionAffiliations = "affiliations"
	CollectionWorks        = "works"
	CollectionPatents      = "patents"
	CollectionProjects     = "projects"
	CollectionOtherWorks   = "other_works"
	CollectionSources      = "sources"
)

// Title is a provenance-tagged localized product title. A product carries one
// title per ingestion source; exactly one is canonical per display.
type Title struct {
	Title  string `bson:"title" json:"title"`
	Lang   string `bson:"lang" json:"lang"`
	Source string `bson:"source" json:"source"`
}

// AuthorAffiliation is the affiliation recorded on a product author entry.
type AuthorAffiliation struct {
	ID    string       `bson:"id" json:"id"`
	Name  string       `bson:"name,omitempty" json:"name,omitempty"`
	Types []TypedValue `bson:"types,omitempty" json:"types,omitempty"`
}

// Author is a product author. ID may be empty when the author was never
// disambiguated to a person record.
type Author struct {
	ID           string              `bson:"id,omitempty" json:"id,omitempty"`
	FullName     string              `bson:"full_name" json:"full_name"`
	Affiliations []AuthorAffiliation `bson:"affiliations,omitempty" json:"affiliations,omitempty"`
}

// Subject is a single subject/topic tag.
type Subject struct {
	ID   string `bson:"id,omitempty" json:"id,omitempty"`
	Name string `bson:"name" json:"name"`
}

// SubjectGroup is a provenance-tagged group of subject tags.
type SubjectGroup struct {
	Source   string    `bson:"source" json:"source"`
	Subjects []Subject `bson:"subjects" json:"subjects"`
}

// SourceRef references the venue (journal, conference) a product appeared in.
type SourceRef struct {
	ID   string `bson:"id,omitempty" json:"id,omitempty"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
}

// BibliographicInfo carries publication metadata attached by ingestion.
type BibliographicInfo struct {
	Volume           string `bson:"volume,omitempty" json:"volume,omitempty"`
	Issue            string `bson:"issue,omitempty" json:"issue,omitempty"`
	Pages            string `bson:"pages,omitempty" json:"pages,omitempty"`
	IsOpenAccess     *bool  `bson:"is_open_access,omitempty" json:"is_open_access,omitempty"`
	OpenAccessStatus string `bson:"open_access_status,omitempty" json:"open_access_status,omitempty"`
}

// Ranking is a per-window ranking entry on a source (journal/venue), such as
// a scimago quartile valid between FromDate and ToDate (Unix timestamps).
type Ranking struct {
	Source   string `bson:"source" json:"source"`
	Rank     string `bson:"rank" json:"rank"`
	FromDate int64  `bson:"from_date" json:"from_date"`
	ToDate   int64  `bson:"to_date" json:"to_date"`
}

// SourceRecord is a venue document from the sources collection, carrying the
// per-window ranking table consulted during enrichment.
type SourceRecord struct {
	ID      string          `bson:"_id" json:"id"`
	Names   []LocalizedName `bson:"names,omitempty" json:"names,omitempty"`
	Ranking []Ranking       `bson:"ranking,omitempty" json:"ranking,omitempty"`
}

// Product is a research product: work, patent, project or other-work. All
// four kinds share this shape; kind-specific collections only differ in which
// fields ingestion populates. A product with no titles is malformed and is
// skipped by the enricher.
type Product struct {
	ID                string            `bson:"_id" json:"id"`
	Titles            []Title           `bson:"titles,omitempty" json:"titles,omitempty"`
	Authors           []Author          `bson:"authors,omitempty" json:"authors,omitempty"`
	AuthorsCount      int               `bson:"author_count,omitempty" json:"author_count,omitempty"`
	Types             []TypedValue      `bson:"types,omitempty" json:"types,omitempty"`
	CitationsCount    []SourceCount     `bson:"citations_count,omitempty" json:"citations_count,omitempty"`
	CitationsByYear   []YearCount       `bson:"citations_by_year,omitempty" json:"citations_by_year,omitempty"`
	YearPublished     int               `bson:"year_published,omitempty" json:"year_published,omitempty"`
	DatePublished     int64             `bson:"date_published,omitempty" json:"date_published,omitempty"`
	Subjects          []SubjectGroup    `bson:"subjects,omitempty" json:"subjects,omitempty"`
	ExternalIDs       []ExternalID      `bson:"external_ids,omitempty" json:"external_ids,omitempty"`
	ExternalURLs      []ExternalURL     `bson:"external_urls,omitempty" json:"external_urls,omitempty"`
	Source            SourceRef         `bson:"source,omitempty" json:"source,omitempty"`
	BibliographicInfo BibliographicInfo `bson:"bibliographic_info,omitempty" json:"bibliographic_info,omitempty"`
}

// EnrichedProduct is the display-ready view of a product produced by the
// enricher: canonical title/type selected by source priority, author list
// truncated for summary views, external ids reclassified into resolvable
// URLs, and the venue quartile resolved for the publication date.
type EnrichedProduct struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Lang           string        `json:"lang,omitempty"`
	ProductType    string        `json:"product_type,omitempty"`
	Authors        []Author      `json:"authors,omitempty"`
	AuthorsCount   int           `json:"authors_count"`
	CitationsCount []SourceCount `json:"citations_count,omitempty"`
	YearPublished  int           `json:"year_published,omitempty"`
	Subjects       []Subject     `json:"subjects,omitempty"`
	ExternalIDs    []ExternalID  `json:"external_ids,omitempty"`
	ExternalURLs   []ExternalURL `json:"external_urls,omitempty"`
	Source         SourceRef     `json:"source,omitempty"`
	BestQuartile   string        `json:"best_quartile,omitempty"`
	OpenAccess     *bool         `json:"open_access,omitempty"`
}
