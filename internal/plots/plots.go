// Package plots derives chart-ready shapes from retrieved product sets:
// time-series bars, percentage pies, geographic choropleths and co-authorship
// networks. Builders are request-scoped and stateless; the only shared state
// is the read-only base-map dataset loaded once at startup.
package plots

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/hierarchy"
	"github.com/jhonbg/quyca-sub001/internal/metrics"
	"github.com/jhonbg/quyca-sub001/internal/observability"
	"github.com/jhonbg/quyca-sub001/internal/products"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

// Plot names accepted by Build.
const (
	PlotAnnualProductsByType  = "annual_products_by_type"
	PlotAnnualCitations       = "annual_citations"
	PlotProductsByType        = "products_by_type"
	PlotProductsBySubject     = "products_by_subject"
	PlotProductsByOpenAccess  = "products_by_open_access"
	PlotCollaborationWorldMap = "collaboration_world_map"
	PlotCollaborationColombia = "collaboration_colombia_map"
	PlotCoauthorshipNetwork   = "coauthorship_network"
	PlotHIndexByGroup         = "h_index_by_group"
)

// Result is the chart-ready payload handed to the serving layer. Sum is set
// for charts with a meaningful total (pies).
type Result struct {
	Plot any  `json:"plot"`
	Sum  *int `json:"sum,omitempty"`
}

func sum(v int) *int { return &v }

// Builder produces plot results for an anchor. It reuses the hierarchy
// resolver for subunit expansion and the metric reconciler for per-subunit
// h-index, rather than reimplementing either.
type Builder struct {
	store      store.Store
	resolver   *hierarchy.Resolver
	reconciler *metrics.Reconciler
	maps       *BaseMaps
	nodeLimit  int
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// NewBuilder creates a plot builder. maps must be loaded; metrics may be nil.
func NewBuilder(st store.Store, resolver *hierarchy.Resolver, reconciler *metrics.Reconciler, maps *BaseMaps, nodeLimit int, logger zerolog.Logger, m *observability.Metrics) *Builder {
	return &Builder{
		store:      st,
		resolver:   resolver,
		reconciler: reconciler,
		maps:       maps,
		nodeLimit:  nodeLimit,
		logger:     logger.With().Str("component", "plots").Logger(),
		metrics:    m,
	}
}

// Build dispatches a plot by name. Unknown names yield NotFoundError.
func (b *Builder) Build(ctx context.Context, name string, anchor domain.Anchor, params domain.QueryParams) (Result, error) {
	var (
		result Result
		err    error
	)
	switch name {
	case PlotAnnualProductsByType:
		result, err = b.annualProductsByType(ctx, anchor, params)
	case PlotAnnualCitations:
		result, err = b.annualCitations(ctx, anchor, params)
	case PlotProductsByType:
		result, err = b.productsByType(ctx, anchor, params)
	case PlotProductsBySubject:
		result, err = b.productsBySubject(ctx, anchor, params)
	case PlotProductsByOpenAccess:
		result, err = b.productsByOpenAccess(ctx, anchor, params)
	case PlotCollaborationWorldMap:
		result, err = b.collaborationMap(ctx, anchor, params, b.maps.World, worldKey, worldFeatureKey)
	case PlotCollaborationColombia:
		result, err = b.collaborationMap(ctx, anchor, params, b.maps.Colombia, colombiaKey, colombiaFeatureKey)
	case PlotCoauthorshipNetwork:
		result, err = b.coauthorshipNetwork(ctx, anchor)
	case PlotHIndexByGroup:
		result, err = b.hIndexByGroup(ctx, anchor)
	default:
		return Result{}, domain.NewNotFoundError("plot", name)
	}
	if err != nil {
		return Result{}, fmt.Errorf("build plot %s: %w", name, err)
	}
	if b.metrics != nil {
		b.metrics.PlotsBuilt.WithLabelValues(name).Inc()
	}
	return result, nil
}

// fetchProducts loads every product matching the anchor and filters across
// the given kinds. Plots consume the full candidate set, not a page.
func (b *Builder) fetchProducts(ctx context.Context, anchor domain.Anchor, params domain.QueryParams, kinds ...domain.ProductKind) ([]domain.Product, error) {
	if len(kinds) == 0 {
		kinds = []domain.ProductKind{domain.ProductWork, domain.ProductPatent, domain.ProductProject, domain.ProductOtherWork}
	}
	predicate := products.CountPredicate(anchor, params)

	var out []domain.Product
	for _, kind := range kinds {
		cur, err := b.store.Find(ctx, kind.Collection(), predicate)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", kind.Collection(), err)
		}
		var batch []domain.Product
		if err := cur.All(ctx, &batch); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind.Collection(), err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

// anchorEntityFilter locates the anchor's own document, used by plots stored
// on the entity record itself.
func anchorEntityFilter(anchor domain.Anchor) (collection string, filter bson.M, ok bool) {
	switch anchor.Kind {
	case domain.AnchorAffiliation:
		return domain.CollectionAffiliations, bson.M{"_id": anchor.ID}, true
	case domain.AnchorPerson:
		return domain.CollectionPersons, bson.M{"_id": anchor.ID}, true
	}
	return "", nil, false
}
