// Package engine is the facade over the core subsystems: hierarchy
// resolution, product queries, metric reconciliation, enrichment and plots.
// It owns the per-request fan-out and the partial-result degradation policy;
// it knows nothing about HTTP.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/enrich"
	"github.com/jhonbg/quyca-sub001/internal/hierarchy"
	"github.com/jhonbg/quyca-sub001/internal/metrics"
	"github.com/jhonbg/quyca-sub001/internal/observability"
	"github.com/jhonbg/quyca-sub001/internal/plots"
	"github.com/jhonbg/quyca-sub001/internal/products"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

// Engine exposes the four use cases to the serving layer. It is stateless
// between requests; every dependency is goroutine-safe.
type Engine struct {
	store       store.Store
	resolver    *hierarchy.Resolver
	runner      *products.Runner
	reconciler  *metrics.Reconciler
	enricher    *enrich.Enricher
	plots       *plots.Builder
	fanOutLimit int
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

// New wires the engine from its subsystems. fanOutLimit bounds concurrent
// store reads per request; metrics may be nil.
func New(st store.Store, resolver *hierarchy.Resolver, runner *products.Runner, reconciler *metrics.Reconciler, enricher *enrich.Enricher, plotBuilder *plots.Builder, fanOutLimit int, logger zerolog.Logger, m *observability.Metrics) *Engine {
	if fanOutLimit <= 0 {
		fanOutLimit = 1
	}
	return &Engine{
		store:       st,
		resolver:    resolver,
		runner:      runner,
		reconciler:  reconciler,
		enricher:    enricher,
		plots:       plotBuilder,
		fanOutLimit: fanOutLimit,
		logger:      logger.With().Str("component", "engine").Logger(),
		metrics:     m,
	}
}

// observe records one use-case invocation; the returned func stops the timer.
func (e *Engine) observe(useCase string) func() {
	start := time.Now()
	if e.metrics != nil {
		e.metrics.RequestsTotal.WithLabelValues(useCase).Inc()
	}
	return func() {
		if e.metrics != nil {
			e.metrics.RequestDuration.WithLabelValues(useCase).Observe(time.Since(start).Seconds())
		}
	}
}

// degrade logs a failed fan-out branch and counts it. The caller substitutes
// a zero value; the request itself proceeds.
func (e *Engine) degrade(branch string, err error) {
	perr := domain.NewPartialComputationError(branch, err)
	e.logger.Warn().Err(perr).Str("branch", branch).Msg("fan-out branch failed, degrading to partial result")
	if e.metrics != nil {
		e.metrics.PartialFailures.WithLabelValues(branch).Inc()
	}
}

// RelatedAffiliations expands a hierarchy node into the related affiliations
// of the requested relation kind.
func (e *Engine) RelatedAffiliations(ctx context.Context, nodeID string, nodeKind domain.Kind, relation domain.RelationKind) ([]domain.Affiliation, error) {
	defer e.observe("related_affiliations")()

	if nodeID == "" {
		return nil, domain.NewValidationError("node_id", "node id is required")
	}
	if !nodeKind.IsAffiliation() {
		return nil, domain.NewValidationError("node_kind", fmt.Sprintf("unknown node kind: %s", nodeKind))
	}
	return e.resolver.Related(ctx, nodeID, nodeKind, relation)
}

// ProductsPage returns one enriched page of products for an anchor, with the
// query-wide total and facet summary computed from the same candidate set.
func (e *Engine) ProductsPage(ctx context.Context, kind domain.ProductKind, anchor domain.Anchor, params domain.QueryParams) (domain.ProductsPage, error) {
	defer e.observe("products_page")()

	if err := params.Validate(); err != nil {
		return domain.ProductsPage{}, err
	}
	params = params.Normalized()

	result, err := e.runner.Run(ctx, kind, anchor, params)
	if err != nil {
		return domain.ProductsPage{}, err
	}

	enriched, err := e.enricher.EnrichBatch(ctx, result.Products)
	if err != nil {
		return domain.ProductsPage{}, err
	}

	return domain.ProductsPage{
		Data:             enriched,
		TotalResults:     result.Total,
		Count:            len(enriched),
		Page:             params.Page,
		AvailableFilters: result.Facets,
	}, nil
}

// PersonSummary builds the info-page view of a person: the public identity
// plus reconciled product count, citation counts and h-index. The three
// metric reads are independent and run concurrently; a failed branch
// degrades to its zero value instead of failing the summary.
func (e *Engine) PersonSummary(ctx context.Context, personID string) (domain.PersonSummary, error) {
	defer e.observe("person_summary")()

	if personID == "" {
		return domain.PersonSummary{}, domain.NewValidationError("person_id", "person id is required")
	}

	var person domain.Person
	err := e.store.FindOne(ctx, domain.CollectionPersons, bson.M{"_id": personID}, &person)
	if errors.Is(err, store.ErrNoDocuments) {
		return domain.PersonSummary{}, domain.NewNotFoundError("person", personID)
	}
	if err != nil {
		return domain.PersonSummary{}, fmt.Errorf("load person %s: %w", personID, err)
	}

	anchor := domain.Anchor{Kind: domain.AnchorPerson, ID: personID}
	summary := domain.PersonSummary{Person: person}
	summary.Person.ExternalIDs = person.PublicExternalIDs()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fanOutLimit)

	g.Go(func() error {
		n, err := e.reconciler.ProductsCount(gctx, anchor, person.ProductsCount)
		if err != nil {
			e.degrade("products_count", err)
			return nil
		}
		summary.ProductsCount = n
		return nil
	})
	g.Go(func() error {
		counts, err := e.reconciler.CitationCounts(gctx, anchor, person.CitationsCount)
		if err != nil {
			e.degrade("citation_counts", err)
			return nil
		}
		summary.CitationsCount = counts
		return nil
	})
	g.Go(func() error {
		h, err := e.reconciler.HIndexFor(gctx, anchor)
		if err != nil {
			e.degrade("h_index", err)
			return nil
		}
		summary.HIndex = h
		return nil
	})

	// Branches never return errors; Wait only joins them.
	_ = g.Wait()
	return summary, nil
}

// Plot produces one named chart for an anchor. Unknown plot names yield
// NotFoundError.
func (e *Engine) Plot(ctx context.Context, anchor domain.Anchor, name string, params domain.QueryParams) (plots.Result, error) {
	defer e.observe("plot")()

	if err := params.Validate(); err != nil {
		return plots.Result{}, err
	}
	return e.plots.Build(ctx, name, anchor, params.Normalized())
}
