package domain

// SourcePriority is an ordered list of provenance sources, most authoritative
// first. It is the single reusable ranked-lookup used everywhere a
// multi-source attribute must collapse to one canonical value, so unknown
// sources are handled identically across fields: they rank after every known
// source.
type SourcePriority []string

// Source-priority policies. The title and type lists intentionally differ in
// order and must not be unified; reordering either changes displayed output
// materially and is a breaking change.
var (
	// TitlePriority selects the canonical title/language of a product.
	TitlePriority = SourcePriority{"openalex", "scholar", "scienti", "minciencias", "ranking"}

	// TypePriority selects the canonical product-type label.
	TypePriority = SourcePriority{"openalex", "scienti", "minciencias", "scholar"}

	// CountPriority selects the headline citation count reported to users.
	// Per-source counts are labeled alternatives; they are never summed.
	CountPriority = SourcePriority{"scholar", "openalex"}
)

// Rank returns the position of source in the priority list. Unknown sources
// rank after all known ones (len(p)), so they sort last under ascending rank.
func (p SourcePriority) Rank(source string) int {
	for i, s := range p {
		if s == source {
			return i
		}
	}
	return len(p)
}

// PickRanked returns the item whose source (as reported by sourceOf) ranks
// best under the priority list. Ties and unknown-only inputs resolve to the
// first item in input order, making selection deterministic regardless of how
// ingestion ordered the array. The second return is false for empty input.
func PickRanked[T any](priority SourcePriority, items []T, sourceOf func(T) string) (T, bool) {
	var best T
	if len(items) == 0 {
		return best, false
	}
	best = items[0]
	bestRank := priority.Rank(sourceOf(items[0]))
	for _, item := range items[1:] {
		if r := priority.Rank(sourceOf(item)); r < bestRank {
			best, bestRank = item, r
		}
	}
	return best, true
}
