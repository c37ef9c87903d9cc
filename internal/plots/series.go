package plots

import (
	"context"
	"sort"

	"github.com/jhonbg/quyca-sub001/internal/domain"
)

// Bar is one point of a time-series bar chart.
type Bar struct {
	X    int    `json:"x"`
	Y    int64  `json:"y"`
	Type string `json:"type,omitempty"`
}

// canonicalType selects the product type the same way the enricher does, by
// source-priority ranking.
func canonicalType(p domain.Product) string {
	t, ok := domain.PickRanked(domain.TypePriority, p.Types, func(tv domain.TypedValue) string {
		return tv.Source
	})
	if !ok {
		return ""
	}
	return t.Type
}

// sortBars orders bars year descending, then value descending. The order is
// total, so output is deterministic for any input order.
func sortBars(bars []Bar) {
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].X != bars[j].X {
			return bars[i].X > bars[j].X
		}
		if bars[i].Y != bars[j].Y {
			return bars[i].Y > bars[j].Y
		}
		return bars[i].Type < bars[j].Type
	})
}

// annualProductsByType groups products by (year, canonical type). Products
// without a publication year are excluded from bars.
func (b *Builder) annualProductsByType(ctx context.Context, anchor domain.Anchor, params domain.QueryParams) (Result, error) {
	prods, err := b.fetchProducts(ctx, anchor, params)
	if err != nil {
		return Result{}, err
	}

	type key struct {
		year int
		typ  string
	}
	counts := map[key]int64{}
	for _, p := range prods {
		if p.YearPublished == 0 {
			continue
		}
		counts[key{p.YearPublished, canonicalType(p)}]++
	}

	bars := make([]Bar, 0, len(counts))
	for k, v := range counts {
		bars = append(bars, Bar{X: k.year, Y: v, Type: k.typ})
	}
	sortBars(bars)
	return Result{Plot: bars}, nil
}

// annualCitations sums the per-year citation series of every work.
func (b *Builder) annualCitations(ctx context.Context, anchor domain.Anchor, params domain.QueryParams) (Result, error) {
	works, err := b.fetchProducts(ctx, anchor, params, domain.ProductWork)
	if err != nil {
		return Result{}, err
	}

	counts := map[int]int64{}
	for _, w := range works {
		for _, yc := range w.CitationsByYear {
			if yc.Year == 0 {
				continue
			}
			counts[yc.Year] += int64(yc.Count)
		}
	}

	bars := make([]Bar, 0, len(counts))
	for year, v := range counts {
		bars = append(bars, Bar{X: year, Y: v})
	}
	sortBars(bars)
	return Result{Plot: bars}, nil
}
