package products

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

// Runner executes product queries against the store.
type Runner struct {
	store  store.Store
	logger zerolog.Logger
}

// NewRunner creates a new product query runner.
func NewRunner(st store.Store, logger zerolog.Logger) *Runner {
	return &Runner{
		store:  st,
		logger: logger.With().Str("component", "products").Logger(),
	}
}

// Result is one raw page of products plus the query-wide totals and facets,
// all computed from the same filtered candidate set.
type Result struct {
	Products []domain.Product
	Total    int64
	Facets   domain.Facets
}

// facetDoc is the single document emitted by the $facet stage.
type facetDoc struct {
	Data  []domain.Product `bson:"data"`
	Total []struct {
		Value int64 `bson:"value"`
	} `bson:"total"`
	Types      []stringBucket `bson:"types"`
	Years      []intBucket    `bson:"years"`
	Subjects   []stringBucket `bson:"subjects"`
	OpenAccess []stringBucket `bson:"open_access"`
}

type stringBucket struct {
	ID    string `bson:"_id"`
	Count int64  `bson:"count"`
}

type intBucket struct {
	ID    int   `bson:"_id"`
	Count int64 `bson:"count"`
}

// Run executes the combined page+facets pipeline for one product kind.
func (r *Runner) Run(ctx context.Context, kind domain.ProductKind, anchor domain.Anchor, params domain.QueryParams) (Result, error) {
	if !kind.Valid() {
		return Result{}, domain.NewValidationError("product_kind", fmt.Sprintf("unknown product kind: %s", kind))
	}
	params = params.Normalized()

	cur, err := r.store.Aggregate(ctx, kind.Collection(), Pipeline(anchor, params))
	if err != nil {
		return Result{}, fmt.Errorf("run product query on %s: %w", kind.Collection(), err)
	}

	var docs []facetDoc
	if err := cur.All(ctx, &docs); err != nil {
		return Result{}, fmt.Errorf("decode product query on %s: %w", kind.Collection(), err)
	}
	if len(docs) == 0 {
		return Result{Products: []domain.Product{}}, nil
	}
	doc := docs[0]

	res := Result{
		Products: doc.Data,
		Facets:   buildFacets(doc),
	}
	if len(doc.Total) > 0 {
		res.Total = doc.Total[0].Value
	}
	return res, nil
}

// Count returns the total over the full filter predicate, independently of
// any limited page.
func (r *Runner) Count(ctx context.Context, kind domain.ProductKind, anchor domain.Anchor, params domain.QueryParams) (int64, error) {
	if !kind.Valid() {
		return 0, domain.NewValidationError("product_kind", fmt.Sprintf("unknown product kind: %s", kind))
	}
	n, err := r.store.Count(ctx, kind.Collection(), CountPredicate(anchor, params.Normalized()))
	if err != nil {
		return 0, fmt.Errorf("count products on %s: %w", kind.Collection(), err)
	}
	return n, nil
}

func buildFacets(doc facetDoc) domain.Facets {
	facets := domain.Facets{
		Types:      stringFacet(doc.Types),
		Subjects:   stringFacet(doc.Subjects),
		OpenAccess: stringFacet(doc.OpenAccess),
	}
	facets.Years = make([]domain.FacetValue, 0, len(doc.Years))
	for _, b := range doc.Years {
		facets.Years = append(facets.Years, domain.FacetValue{
			Value: strconv.Itoa(b.ID),
			Count: b.Count,
		})
	}
	return facets
}

func stringFacet(buckets []stringBucket) []domain.FacetValue {
	out := make([]domain.FacetValue, 0, len(buckets))
	for _, b := range buckets {
		if b.ID == "" {
			continue
		}
		out = append(out, domain.FacetValue{Value: b.ID, Count: b.Count})
	}
	return out
}
