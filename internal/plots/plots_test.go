package plots

import (
	"context"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jhonbg/quyca-sub001/internal/config"
	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/hierarchy"
	"github.com/jhonbg/quyca-sub001/internal/metrics"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

func testBuilder(t *testing.T, st store.Store) *Builder {
	t.Helper()
	maps, err := LoadBaseMaps(config.PlotsConfig{})
	require.NoError(t, err)
	resolver := hierarchy.NewResolver(st, zerolog.Nop())
	reconciler := metrics.NewReconciler(st, zerolog.Nop())
	return NewBuilder(st, resolver, reconciler, maps, 50, zerolog.Nop(), nil)
}

func TestBuildUnknownPlot(t *testing.T) {
	b := testBuilder(t, &store.Fake{})
	_, err := b.Build(context.Background(), "no_such_plot", domain.Anchor{Kind: domain.AnchorNone}, domain.QueryParams{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWithPercentages(t *testing.T) {
	t.Run("percentages sum to 100 within rounding tolerance", func(t *testing.T) {
		slices, total := withPercentages([]Slice{
			{Name: "a", Value: 1},
			{Name: "b", Value: 1},
			{Name: "c", Value: 1},
		})
		assert.Equal(t, 3, total)
		var pct float64
		for _, s := range slices {
			pct += s.Percentage
		}
		assert.InDelta(t, 100, pct, 0.05)
	})

	t.Run("zero total yields zero percentages", func(t *testing.T) {
		slices, total := withPercentages([]Slice{{Name: "a"}, {Name: "b"}})
		assert.Equal(t, 0, total)
		for _, s := range slices {
			assert.Zero(t, s.Percentage)
		}
	})

	t.Run("rounds to two decimals", func(t *testing.T) {
		slices, _ := withPercentages([]Slice{
			{Name: "a", Value: 1},
			{Name: "b", Value: 2},
		})
		assert.Equal(t, 33.33, slices[0].Percentage)
		assert.Equal(t, 66.67, slices[1].Percentage)
	})
}

func TestSortBars(t *testing.T) {
	bars := []Bar{
		{X: 2020, Y: 1, Type: "Article"},
		{X: 2022, Y: 3, Type: "Article"},
		{X: 2022, Y: 7, Type: "Book"},
		{X: 2021, Y: 5, Type: "Article"},
	}
	sortBars(bars)
	assert.Equal(t, []Bar{
		{X: 2022, Y: 7, Type: "Book"},
		{X: 2022, Y: 3, Type: "Article"},
		{X: 2021, Y: 5, Type: "Article"},
		{X: 2020, Y: 1, Type: "Article"},
	}, bars)
}

func TestAnnualProductsByTypeExcludesNoYear(t *testing.T) {
	st := &store.Fake{
		FindFunc: func(collection string, filter interface{}) ([]interface{}, error) {
			if collection != domain.CollectionWorks {
				return nil, nil
			}
			return []interface{}{
				bson.M{"_id": "w1", "year_published": 2022, "types": []bson.M{{"type": "Article", "source": "openalex"}}},
				bson.M{"_id": "w2", "year_published": 2022, "types": []bson.M{{"type": "Article", "source": "openalex"}}},
				bson.M{"_id": "w3", "types": []bson.M{{"type": "Article", "source": "openalex"}}},
			}, nil
		},
	}

	got, err := testBuilder(t, st).Build(context.Background(), PlotAnnualProductsByType, domain.Anchor{Kind: domain.AnchorNone}, domain.QueryParams{})
	require.NoError(t, err)
	assert.Equal(t, []Bar{{X: 2022, Y: 2, Type: "Article"}}, got.Plot)
}

func TestAnnualCitations(t *testing.T) {
	st := &store.Fake{
		FindFunc: func(collection string, filter interface{}) ([]interface{}, error) {
			require.Equal(t, domain.CollectionWorks, collection)
			return []interface{}{
				bson.M{"_id": "w1", "citations_by_year": []bson.M{{"year": 2021, "count": 3}, {"year": 2022, "count": 1}}},
				bson.M{"_id": "w2", "citations_by_year": []bson.M{{"year": 2021, "count": 2}}},
			}, nil
		},
	}

	got, err := testBuilder(t, st).Build(context.Background(), PlotAnnualCitations, domain.Anchor{Kind: domain.AnchorNone}, domain.QueryParams{})
	require.NoError(t, err)
	assert.Equal(t, []Bar{{X: 2022, Y: 1}, {X: 2021, Y: 5}}, got.Plot)
}

func TestProductsByOpenAccessBucketsUnknown(t *testing.T) {
	st := &store.Fake{
		FindFunc: func(collection string, filter interface{}) ([]interface{}, error) {
			return []interface{}{
				bson.M{"_id": "w1", "bibliographic_info": bson.M{"open_access_status": "gold"}},
				bson.M{"_id": "w2", "bibliographic_info": bson.M{"open_access_status": "gold"}},
				bson.M{"_id": "w3"},
			}, nil
		},
	}

	got, err := testBuilder(t, st).Build(context.Background(), PlotProductsByOpenAccess, domain.Anchor{Kind: domain.AnchorNone}, domain.QueryParams{})
	require.NoError(t, err)
	slices := got.Plot.([]Slice)
	require.Len(t, slices, 2)
	assert.Equal(t, Slice{Name: "gold", Value: 2, Percentage: 66.67}, slices[0])
	assert.Equal(t, Slice{Name: "unknown", Value: 1, Percentage: 33.33}, slices[1])
	require.NotNil(t, got.Sum)
	assert.Equal(t, 3, *got.Sum)
}

func TestPruneNetwork(t *testing.T) {
	network := Network{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		Edges: []Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "c"},
			{Source: "a", Target: "d"},
			{Source: "b", Target: "c"},
		},
	}

	got := pruneNetwork(network, 2)

	require.Len(t, got.Nodes, 2)
	assert.Equal(t, "a", got.Nodes[0].ID)
	kept := map[string]bool{}
	for _, n := range got.Nodes {
		kept[n.ID] = true
	}
	for _, e := range got.Edges {
		assert.True(t, kept[e.Source], "edge source %s must be a kept node", e.Source)
		assert.True(t, kept[e.Target], "edge target %s must be a kept node", e.Target)
	}
}

func TestPruneNetworkKeepsSmallGraphsIntact(t *testing.T) {
	network := Network{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{{Source: "a", Target: "b"}},
	}
	got := pruneNetwork(network, 50)
	assert.Len(t, got.Nodes, 2)
	assert.Len(t, got.Edges, 1)
}

func TestFoldCountsZeroFills(t *testing.T) {
	maps, err := LoadBaseMaps(config.PlotsConfig{})
	require.NoError(t, err)

	folded := foldCounts(maps.World, map[string]int64{"CO": 7}, worldFeatureKey)

	require.Len(t, folded.Features, len(maps.World.Features))
	var matched, zeroFilled int
	for _, f := range folded.Features {
		count := f.Properties["count"].(int64)
		logCount := f.Properties["log_count"].(float64)
		if f.Properties["id"] == "CO" {
			matched++
			assert.Equal(t, int64(7), count)
			assert.InDelta(t, 1.9459, logCount, 0.001)
			continue
		}
		zeroFilled++
		assert.Zero(t, count)
		assert.Zero(t, logCount)
	}
	assert.Equal(t, 1, matched)
	assert.Equal(t, len(maps.World.Features)-1, zeroFilled)

	// Base map stays untouched.
	_, has := maps.World.Features[0].Properties["count"]
	assert.False(t, has)
}

func TestCollaborationWorldMap(t *testing.T) {
	st := &store.Fake{
		FindFunc: func(collection string, filter interface{}) ([]interface{}, error) {
			switch collection {
			case domain.CollectionAffiliations:
				return []interface{}{
					bson.M{"_id": "aff1", "addresses": []bson.M{{"country_code": "co"}}},
					bson.M{"_id": "aff2", "addresses": []bson.M{{"country_code": "US"}}},
				}, nil
			case domain.CollectionWorks:
				return []interface{}{
					bson.M{"_id": "w1", "authors": []bson.M{
						{"id": "p1", "affiliations": []bson.M{{"id": "aff1"}}},
						{"id": "p2", "affiliations": []bson.M{{"id": "aff2"}}},
					}},
					bson.M{"_id": "w2", "authors": []bson.M{
						{"id": "p1", "affiliations": []bson.M{{"id": "aff1"}, {"id": "aff1"}}},
					}},
				}, nil
			}
			return nil, nil
		},
	}

	got, err := testBuilder(t, st).Build(context.Background(), PlotCollaborationWorldMap, domain.Anchor{Kind: domain.AnchorNone}, domain.QueryParams{})
	require.NoError(t, err)

	folded := got.Plot.(*geojson.FeatureCollection)
	counts := map[string]int64{}
	for _, f := range folded.Features {
		counts[f.Properties["id"].(string)] = f.Properties["count"].(int64)
	}
	assert.Equal(t, int64(2), counts["CO"], "both works have a Colombian coauthor, counted once each")
	assert.Equal(t, int64(1), counts["US"])
	assert.Zero(t, counts["DE"], "unmatched features are zero-filled, not omitted")
}

func TestCoauthorshipNetworkUnknownAnchor(t *testing.T) {
	st := &store.Fake{
		FindOneFunc: func(collection string, filter interface{}) (interface{}, error) {
			return nil, store.ErrNoDocuments
		},
	}
	b := testBuilder(t, st)
	_, err := b.Build(context.Background(), PlotCoauthorshipNetwork, domain.Anchor{Kind: domain.AnchorPerson, ID: "missing"}, domain.QueryParams{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHIndexByGroup(t *testing.T) {
	st := &store.Fake{
		FindOneFunc: func(collection string, filter interface{}) (interface{}, error) {
			require.Equal(t, domain.CollectionAffiliations, collection)
			return bson.M{
				"_id":   "i1",
				"names": []bson.M{{"name": "Universidad", "lang": "es"}},
				"types": []bson.M{{"type": "institution", "source": "scienti"}},
			}, nil
		},
		FindFunc: func(collection string, filter interface{}) ([]interface{}, error) {
			if collection == domain.CollectionAffiliations {
				return []interface{}{
					bson.M{"_id": "g1", "names": []bson.M{{"name": "Grupo Uno", "lang": "es"}}, "types": []bson.M{{"type": "group", "source": "scienti"}}},
				}, nil
			}
			require.Equal(t, domain.CollectionWorks, collection)
			return []interface{}{
				bson.M{"_id": "w1", "citations_count": []bson.M{{"source": "scholar", "count": 5}}},
				bson.M{"_id": "w2", "citations_count": []bson.M{{"source": "scholar", "count": 4}}},
				bson.M{"_id": "w3", "citations_count": []bson.M{{"source": "scholar", "count": 1}}},
			}, nil
		},
	}

	got, err := testBuilder(t, st).Build(context.Background(), PlotHIndexByGroup, domain.Anchor{Kind: domain.AnchorAffiliation, ID: "i1"}, domain.QueryParams{})
	require.NoError(t, err)
	slices := got.Plot.([]Slice)
	require.Len(t, slices, 1)
	assert.Equal(t, "Grupo Uno", slices[0].Name)
	assert.Equal(t, int64(2), slices[0].Value)
}
