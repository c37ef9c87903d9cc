package domain

import (
	"github.com/go-playground/validator/v10"
)

// Pagination bounds.
const (
	// DefaultPageSize is the page size applied when the caller omits max.
	DefaultPageSize = 10
	// MaxPageSize is the hard ceiling on page size, enforced regardless of
	// caller input.
	MaxPageSize = 250
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// QueryParams is the per-request value object carrying keywords, filters,
// sort and pagination. It has no identity beyond the request.
type QueryParams struct {
	// Keywords is an optional free-text search expression. When present it
	// runs as the first pipeline stage, scored by text relevance.
	Keywords string `validate:"max=512"`

	// Max is the requested page size, clamped to MaxPageSize.
	Max int64 `validate:"gte=0"`

	// Page is 1-based; zero or negative normalizes to 1.
	Page int64

	// Sort is a sort key optionally suffixed with a trailing '-' for
	// descending order. Unknown keys degrade to the default order.
	Sort string `validate:"max=64"`

	// Skip overrides the derived offset when non-nil.
	Skip *int64

	// Filters holds named predicate values (type, year, subject, open
	// access). Unrecognized keys are ignored for forward compatibility.
	Filters map[string]string
}

// Validate checks field-level constraints on the params.
func (q QueryParams) Validate() error {
	if err := validate.Struct(q); err != nil {
		return NewValidationError("query_params", err.Error())
	}
	return nil
}

// Normalized returns a copy of the params with pagination invariants
// enforced: Max defaulted and clamped to MaxPageSize, Page at least 1, and
// Skip derived as (Page-1)*Max unless explicitly supplied. Skip is never
// negative.
func (q QueryParams) Normalized() QueryParams {
	out := q
	if out.Max <= 0 {
		out.Max = DefaultPageSize
	}
	if out.Max > MaxPageSize {
		out.Max = MaxPageSize
	}
	if out.Page < 1 {
		out.Page = 1
	}
	var skip int64
	if q.Skip != nil {
		skip = *q.Skip
	} else {
		skip = (out.Page - 1) * out.Max
	}
	if skip < 0 {
		skip = 0
	}
	out.Skip = &skip
	return out
}

// SkipValue returns the effective offset, deriving it when unset.
func (q QueryParams) SkipValue() int64 {
	if q.Skip != nil {
		return *q.Skip
	}
	n := q.Normalized()
	return *n.Skip
}

// AnchorKind discriminates what a product query is scoped to.
type AnchorKind string

// Anchor kinds.
const (
	// AnchorAffiliation scopes products to authors affiliated with a
	// hierarchy node.
	AnchorAffiliation AnchorKind = "affiliation"
	// AnchorPerson scopes products to a single author.
	AnchorPerson AnchorKind = "person"
	// AnchorNone is a free-text search with no entity scope.
	AnchorNone AnchorKind = "none"
)

// Anchor is the hierarchy node or person a product query is scoped to.
type Anchor struct {
	Kind AnchorKind
	ID   string
}

// FacetValue is one value of a filterable dimension with its count over the
// filtered candidate set.
type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Facets summarizes the filterable dimensions of a candidate set so the
// caller can render "N results" next to each facet option. Facets and the
// page they accompany are always computed from the same filtered candidate
// set.
type Facets struct {
	Types      []FacetValue `json:"product_types,omitempty"`
	Years      []FacetValue `json:"years,omitempty"`
	Subjects   []FacetValue `json:"subjects,omitempty"`
	OpenAccess []FacetValue `json:"open_access,omitempty"`
}

// Empty reports whether no facet dimension has values.
func (f Facets) Empty() bool {
	return len(f.Types) == 0 && len(f.Years) == 0 && len(f.Subjects) == 0 && len(f.OpenAccess) == 0
}

// ProductsPage is one page of enriched products plus the query-wide totals
// and facet summary.
type ProductsPage struct {
	Data             []EnrichedProduct `json:"data"`
	TotalResults     int64             `json:"total_results"`
	Count            int               `json:"count"`
	Page             int64             `json:"page"`
	AvailableFilters Facets            `json:"available_filters"`
}

// ReconciledCount is the authoritative view over disagreeing per-source
// counters: each source's count as a labeled alternative plus the headline
// value picked by CountPriority.
type ReconciledCount struct {
	Headline int           `json:"headline"`
	Sources  []SourceCount `json:"sources,omitempty"`
}

// PersonSummary is the info-page view of a person.
type PersonSummary struct {
	Person         Person          `json:"person"`
	ProductsCount  int64           `json:"products_count"`
	CitationsCount ReconciledCount `json:"citations_count"`
	HIndex         int             `json:"h_index"`
}
