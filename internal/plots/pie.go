package plots

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jhonbg/quyca-sub001/internal/domain"
)

// Slice is one category of a pie chart. Percentage is filled by
// withPercentages, never by the individual chart builders.
type Slice struct {
	Name       string  `json:"name"`
	Value      int64   `json:"value"`
	Percentage float64 `json:"percentage"`
}

// withPercentages decorates every slice with its share of the total, rounded
// to two decimals. A zero total yields zero percentages, not a division
// error. Every pie goes through this one function.
func withPercentages(slices []Slice) ([]Slice, int) {
	var total int64
	for _, s := range slices {
		total += s.Value
	}
	for i := range slices {
		if total == 0 {
			slices[i].Percentage = 0
			continue
		}
		pct := float64(slices[i].Value) / float64(total) * 100
		slices[i].Percentage = math.Round(pct*100) / 100
	}
	return slices, int(total)
}

// sortSlices orders slices value descending, then name ascending for a total
// deterministic order.
func sortSlices(slices []Slice) {
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Value != slices[j].Value {
			return slices[i].Value > slices[j].Value
		}
		return slices[i].Name < slices[j].Name
	})
}

func pieResult(counts map[string]int64) Result {
	slices := make([]Slice, 0, len(counts))
	for name, v := range counts {
		slices = append(slices, Slice{Name: name, Value: v})
	}
	sortSlices(slices)
	slices, total := withPercentages(slices)
	return Result{Plot: slices, Sum: sum(total)}
}

// productsByType counts products per canonical type.
func (b *Builder) productsByType(ctx context.Context, anchor domain.Anchor, params domain.QueryParams) (Result, error) {
	prods, err := b.fetchProducts(ctx, anchor, params)
	if err != nil {
		return Result{}, err
	}

	counts := map[string]int64{}
	for _, p := range prods {
		typ := canonicalType(p)
		if typ == "" {
			continue
		}
		counts[typ]++
	}
	return pieResult(counts), nil
}

// productsBySubject counts products per subject tag. A product contributes
// once per distinct subject.
func (b *Builder) productsBySubject(ctx context.Context, anchor domain.Anchor, params domain.QueryParams) (Result, error) {
	prods, err := b.fetchProducts(ctx, anchor, params)
	if err != nil {
		return Result{}, err
	}

	counts := map[string]int64{}
	for _, p := range prods {
		seen := map[string]bool{}
		for _, group := range p.Subjects {
			for _, s := range group.Subjects {
				if s.Name == "" || seen[s.Name] {
					continue
				}
				seen[s.Name] = true
				counts[s.Name]++
			}
		}
	}
	return pieResult(counts), nil
}

// productsByOpenAccess counts works per open-access status. Works without a
// recorded status land in an "unknown" bucket so slices always cover the
// whole candidate set.
func (b *Builder) productsByOpenAccess(ctx context.Context, anchor domain.Anchor, params domain.QueryParams) (Result, error) {
	works, err := b.fetchProducts(ctx, anchor, params, domain.ProductWork)
	if err != nil {
		return Result{}, err
	}

	counts := map[string]int64{}
	for _, w := range works {
		status := w.BibliographicInfo.OpenAccessStatus
		if status == "" {
			status = "unknown"
		}
		counts[status]++
	}
	return pieResult(counts), nil
}

// hIndexByGroup computes the h-index of each research group under the anchor
// affiliation, reusing the reconciler's computation per subunit.
func (b *Builder) hIndexByGroup(ctx context.Context, anchor domain.Anchor) (Result, error) {
	if anchor.Kind != domain.AnchorAffiliation {
		return Result{}, domain.NewValidationError("anchor", "h_index_by_group requires an affiliation anchor")
	}

	node, err := b.resolver.Node(ctx, anchor.ID)
	if err != nil {
		return Result{}, err
	}
	groups, err := b.resolver.Related(ctx, anchor.ID, node.Kind(), domain.RelationGroup)
	if err != nil {
		return Result{}, err
	}

	slices := make([]Slice, 0, len(groups))
	for _, group := range groups {
		h, err := b.reconciler.HIndexFor(ctx, domain.Anchor{Kind: domain.AnchorAffiliation, ID: group.ID})
		if err != nil {
			return Result{}, fmt.Errorf("h-index of group %s: %w", group.ID, err)
		}
		slices = append(slices, Slice{Name: group.DisplayName(), Value: int64(h)})
	}
	sortSlices(slices)
	slices, total := withPercentages(slices)
	return Result{Plot: slices, Sum: sum(total)}, nil
}
