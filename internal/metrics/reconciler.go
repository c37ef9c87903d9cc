// Package metrics reconciles multi-source bibliometric counters into a
// single authoritative view and derives statistics (h-index) from citation
// distributions.
//
// Counters recorded by independent ingestion pipelines (scienti, openalex,
// scholar, minciencias) routinely disagree. A product cited N times by one
// tracker and M by another was not cited N+M times, so per-source counts are
// never summed: each is reported as a labeled alternative, and the headline
// number shown to users is picked by explicit source priority.
package metrics

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/products"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

// ReconcileCounts merges disagreeing per-source counters into the
// authoritative view: all sources as labeled alternatives plus a headline
// picked by CountPriority (scholar, then openalex, then zero). The priority
// is a policy decision; reversing it changes displayed totals materially and
// must be treated as a breaking change.
func ReconcileCounts(raw []domain.SourceCount) domain.ReconciledCount {
	out := domain.ReconciledCount{Sources: raw}
	best, ok := domain.PickRanked(domain.CountPriority, raw, func(c domain.SourceCount) string {
		return c.Source
	})
	// A best pick from an unranked source means no trusted tracker reported
	// a count; the headline stays zero rather than trusting an arbitrary one.
	if ok && domain.CountPriority.Rank(best.Source) < len(domain.CountPriority) {
		out.Headline = best.Count
	}
	return out
}

// HIndex returns the largest h such that h items each have at least h
// citations. The distribution is sorted descending first, then scanned until
// the invariant count[i] >= i+1 fails; the input slice is not modified.
// Empty input yields 0.
func HIndex(distribution []int) int {
	if len(distribution) == 0 {
		return 0
	}
	counts := make([]int, len(distribution))
	copy(counts, distribution)
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	h := 0
	for i, c := range counts {
		if c < i+1 {
			break
		}
		h = i + 1
	}
	return h
}

// Reconciler computes reconciled metrics, falling back to on-demand store
// aggregation when cached counters are absent. Absence of a cached counter
// means "compute", never "zero".
type Reconciler struct {
	store  store.Store
	logger zerolog.Logger
}

// NewReconciler creates a new metric reconciler.
func NewReconciler(st store.Store, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:  st,
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// productCollections are the collections a products-count fallback scans.
var productCollections = []string{
	domain.CollectionWorks,
	domain.CollectionPatents,
	domain.CollectionProjects,
	domain.CollectionOtherWorks,
}

// ProductsCount returns the cached counter when present, otherwise counts
// every product on which the anchor appears as an author/affiliation
// reference — one pass over the product collections, never a sum of cached
// child counters (composite relationships would double count).
func (r *Reconciler) ProductsCount(ctx context.Context, anchor domain.Anchor, cached *int64) (int64, error) {
	if cached != nil {
		return *cached, nil
	}
	match := products.AnchorMatch(anchor)
	var total int64
	for _, collection := range productCollections {
		n, err := r.store.Count(ctx, collection, match)
		if err != nil {
			return 0, fmt.Errorf("count products in %s: %w", collection, err)
		}
		total += n
	}
	return total, nil
}

// CitationCounts reconciles the cached per-source citation counters when
// present, otherwise aggregates per-source citation totals over the anchor's
// works in a single pipeline pass.
func (r *Reconciler) CitationCounts(ctx context.Context, anchor domain.Anchor, cached []domain.SourceCount) (domain.ReconciledCount, error) {
	if len(cached) > 0 {
		return ReconcileCounts(cached), nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: products.AnchorMatch(anchor)}},
		{{Key: "$unwind", Value: "$citations_count"}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$citations_count.source",
			"count": bson.M{"$sum": "$citations_count.count"},
		}}},
	}
	cur, err := r.store.Aggregate(ctx, domain.CollectionWorks, pipeline)
	if err != nil {
		return domain.ReconciledCount{}, fmt.Errorf("aggregate citation counts: %w", err)
	}
	var buckets []struct {
		Source string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cur.All(ctx, &buckets); err != nil {
		return domain.ReconciledCount{}, fmt.Errorf("decode citation counts: %w", err)
	}

	counts := make([]domain.SourceCount, len(buckets))
	for i, b := range buckets {
		counts[i] = domain.SourceCount{Source: b.Source, Count: b.Count}
	}
	return ReconcileCounts(counts), nil
}

// HIndexFor computes the anchor's h-index from the headline citation count of
// each of its works.
func (r *Reconciler) HIndexFor(ctx context.Context, anchor domain.Anchor) (int, error) {
	cur, err := r.store.Find(ctx, domain.CollectionWorks, products.AnchorMatch(anchor))
	if err != nil {
		return 0, fmt.Errorf("load works for h-index: %w", err)
	}
	var works []struct {
		CitationsCount []domain.SourceCount `bson:"citations_count"`
	}
	if err := cur.All(ctx, &works); err != nil {
		return 0, fmt.Errorf("decode works for h-index: %w", err)
	}

	distribution := make([]int, 0, len(works))
	for _, w := range works {
		distribution = append(distribution, ReconcileCounts(w.CitationsCount).Headline)
	}
	return HIndex(distribution), nil
}
