package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

func TestReconcileCounts(t *testing.T) {
	tests := []struct {
		name     string
		raw      []domain.SourceCount
		headline int
	}{
		{
			name: "scholar wins over openalex",
			raw: []domain.SourceCount{
				{Source: "openalex", Count: 120},
				{Source: "scholar", Count: 95},
			},
			headline: 95,
		},
		{
			name:     "openalex when scholar absent",
			raw:      []domain.SourceCount{{Source: "openalex", Count: 40}},
			headline: 40,
		},
		{
			name:     "unranked sources never set the headline",
			raw:      []domain.SourceCount{{Source: "scienti", Count: 7}},
			headline: 0,
		},
		{
			name:     "empty input",
			raw:      nil,
			headline: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconcileCounts(tt.raw)
			assert.Equal(t, tt.headline, got.Headline)
			assert.Equal(t, tt.raw, got.Sources)
		})
	}
}

func TestHIndex(t *testing.T) {
	tests := []struct {
		name         string
		distribution []int
		want         int
	}{
		{name: "empty", distribution: nil, want: 0},
		{name: "all zeros", distribution: []int{0, 0, 0}, want: 0},
		{name: "descending run", distribution: []int{5, 4, 3, 2, 1}, want: 3},
		{name: "uniform", distribution: []int{10, 10, 10}, want: 3},
		{name: "unsorted input", distribution: []int{1, 8, 2, 8, 5}, want: 3},
		{name: "single cited work", distribution: []int{100}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HIndex(tt.distribution))
		})
	}
}

func TestHIndexDoesNotMutateInput(t *testing.T) {
	distribution := []int{1, 8, 2}
	HIndex(distribution)
	assert.Equal(t, []int{1, 8, 2}, distribution)
}

func TestProductsCountCached(t *testing.T) {
	cached := int64(42)
	fake := &store.Fake{
		CountFunc: func(collection string, filter interface{}) (int64, error) {
			t.Fatal("cached counter must not hit the store")
			return 0, nil
		},
	}
	r := NewReconciler(fake, zerolog.Nop())

	got, err := r.ProductsCount(context.Background(), domain.Anchor{Kind: domain.AnchorPerson, ID: "p1"}, &cached)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestProductsCountFallbackScansAllCollections(t *testing.T) {
	counts := map[string]int64{
		domain.CollectionWorks:      10,
		domain.CollectionPatents:    2,
		domain.CollectionProjects:   3,
		domain.CollectionOtherWorks: 1,
	}
	var seen []string
	fake := &store.Fake{
		CountFunc: func(collection string, filter interface{}) (int64, error) {
			seen = append(seen, collection)
			assert.Equal(t, bson.M{"authors.affiliations.id": "i1"}, filter)
			return counts[collection], nil
		},
	}
	r := NewReconciler(fake, zerolog.Nop())

	got, err := r.ProductsCount(context.Background(), domain.Anchor{Kind: domain.AnchorAffiliation, ID: "i1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(16), got)
	assert.Equal(t, []string{
		domain.CollectionWorks,
		domain.CollectionPatents,
		domain.CollectionProjects,
		domain.CollectionOtherWorks,
	}, seen)
}

func TestProductsCountFallbackError(t *testing.T) {
	fake := &store.Fake{
		CountFunc: func(collection string, filter interface{}) (int64, error) {
			return 0, errors.New("connection reset")
		},
	}
	r := NewReconciler(fake, zerolog.Nop())

	_, err := r.ProductsCount(context.Background(), domain.Anchor{Kind: domain.AnchorPerson, ID: "p1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count products")
}

func TestCitationCountsCached(t *testing.T) {
	fake := &store.Fake{
		AggregateFunc: func(collection string, pipeline interface{}) ([]interface{}, error) {
			t.Fatal("cached counters must not hit the store")
			return nil, nil
		},
	}
	r := NewReconciler(fake, zerolog.Nop())

	cached := []domain.SourceCount{
		{Source: "openalex", Count: 30},
		{Source: "scholar", Count: 25},
	}
	got, err := r.CitationCounts(context.Background(), domain.Anchor{Kind: domain.AnchorPerson, ID: "p1"}, cached)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Headline)
	assert.Equal(t, cached, got.Sources)
}

func TestCitationCountsFallbackAggregates(t *testing.T) {
	fake := &store.Fake{
		AggregateFunc: func(collection string, pipeline interface{}) ([]interface{}, error) {
			assert.Equal(t, domain.CollectionWorks, collection)
			return []interface{}{
				bson.M{"_id": "openalex", "count": 18},
				bson.M{"_id": "scholar", "count": 21},
			}, nil
		},
	}
	r := NewReconciler(fake, zerolog.Nop())

	got, err := r.CitationCounts(context.Background(), domain.Anchor{Kind: domain.AnchorAffiliation, ID: "i1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 21, got.Headline)
	assert.ElementsMatch(t, []domain.SourceCount{
		{Source: "openalex", Count: 18},
		{Source: "scholar", Count: 21},
	}, got.Sources)
}

func TestHIndexFor(t *testing.T) {
	fake := &store.Fake{
		FindFunc: func(collection string, filter interface{}) ([]interface{}, error) {
			assert.Equal(t, domain.CollectionWorks, collection)
			assert.Equal(t, bson.M{"authors.id": "p1"}, filter)
			return []interface{}{
				bson.M{"citations_count": []bson.M{{"source": "scholar", "count": 5}}},
				bson.M{"citations_count": []bson.M{{"source": "scholar", "count": 4}}},
				bson.M{"citations_count": []bson.M{{"source": "openalex", "count": 1}}},
				bson.M{"citations_count": []bson.M{{"source": "scienti", "count": 99}}},
			}, nil
		},
	}
	r := NewReconciler(fake, zerolog.Nop())

	h, err := r.HIndexFor(context.Background(), domain.Anchor{Kind: domain.AnchorPerson, ID: "p1"})
	require.NoError(t, err)
	// Headlines are 5, 4, 1 and 0 (scienti is not a trusted count source).
	assert.Equal(t, 2, h)
}
