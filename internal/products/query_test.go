package products

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jhonbg/quyca-sub001/internal/domain"
)

func TestAnchorMatch(t *testing.T) {
	tests := []struct {
		name   string
		anchor domain.Anchor
		want   bson.M
	}{
		{
			name:   "affiliation anchor",
			anchor: domain.Anchor{Kind: domain.AnchorAffiliation, ID: "i1"},
			want:   bson.M{"authors.affiliations.id": "i1"},
		},
		{
			name:   "person anchor",
			anchor: domain.Anchor{Kind: domain.AnchorPerson, ID: "p1"},
			want:   bson.M{"authors.id": "p1"},
		},
		{
			name:   "no anchor matches everything",
			anchor: domain.Anchor{Kind: domain.AnchorNone},
			want:   bson.M{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnchorMatch(tt.anchor))
		})
	}
}

func TestSortStage(t *testing.T) {
	tests := []struct {
		name string
		sort string
		want bson.D
	}{
		{
			name: "ascending year",
			sort: "year",
			want: bson.D{{Key: "$sort", Value: bson.D{{Key: "year_published", Value: 1}}}},
		},
		{
			name: "descending citations",
			sort: "citations-",
			want: bson.D{{Key: "$sort", Value: bson.D{{Key: "citations_count.count", Value: -1}}}},
		},
		{
			name: "alphabetical aliases title",
			sort: "alphabetical",
			want: bson.D{{Key: "$sort", Value: bson.D{{Key: "titles.0.title", Value: 1}}}},
		},
		{name: "unknown key degrades to default order", sort: "relevance", want: nil},
		{name: "empty", sort: "", want: nil},
		{name: "whitespace only", sort: "  ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sortStage(tt.sort))
		})
	}
}

func TestYearPredicate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bson.M
		ok    bool
	}{
		{
			name:  "single year",
			value: "2020",
			want:  bson.M{"year_published": 2020},
			ok:    true,
		},
		{
			name:  "range",
			value: "2015-2020",
			want:  bson.M{"year_published": bson.M{"$gte": 2015, "$lte": 2020}},
			ok:    true,
		},
		{name: "inverted range", value: "2020-2015", ok: false},
		{name: "not a year", value: "twenty", ok: false},
		{name: "half range", value: "2015-", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := yearPredicate(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFilterPredicates(t *testing.T) {
	preds := filterPredicates(map[string]string{
		FilterType:       "article",
		FilterYear:       "2018",
		FilterSubject:    "Machine Learning",
		FilterOpenAccess: "gold",
		"unknown":        "ignored",
		FilterType + "2": "ignored",
	})

	assert.Equal(t, bson.M{"types.type": "article"}, preds[FilterType])
	assert.Equal(t, bson.M{"year_published": 2018}, preds[FilterYear])
	assert.Equal(t, bson.M{"subjects.subjects.name": "Machine Learning"}, preds[FilterSubject])
	assert.Equal(t, bson.M{"bibliographic_info.open_access_status": "gold"}, preds[FilterOpenAccess])
	assert.Len(t, preds, 4)
}

func TestFilterPredicatesOpenAccessBoolean(t *testing.T) {
	preds := filterPredicates(map[string]string{FilterOpenAccess: "true"})
	assert.Equal(t, bson.M{"bibliographic_info.is_open_access": true}, preds[FilterOpenAccess])
}

func TestFilterPredicatesDropsInvalidValues(t *testing.T) {
	preds := filterPredicates(map[string]string{
		FilterYear: "not-a-year",
		FilterType: "   ",
	})
	assert.Empty(t, preds)
}

func TestPipelineShape(t *testing.T) {
	anchor := domain.Anchor{Kind: domain.AnchorAffiliation, ID: "i1"}
	params := domain.QueryParams{
		Max:     10,
		Page:    2,
		Filters: map[string]string{FilterType: "article"},
	}

	pipeline := Pipeline(anchor, params)
	require.Len(t, pipeline, 2)

	assert.Equal(t, "$match", pipeline[0][0].Key)
	assert.Equal(t, bson.M{"authors.affiliations.id": "i1"}, pipeline[0][0].Value)

	require.Equal(t, "$facet", pipeline[1][0].Key)
	facet, ok := pipeline[1][0].Value.(bson.M)
	require.True(t, ok)
	for _, key := range []string{"data", "total", "types", "years", "subjects", "open_access"} {
		assert.Contains(t, facet, key)
	}

	// The page applies every filter and paginates; skip reflects page 2.
	page, ok := facet["data"].([]bson.D)
	require.True(t, ok)
	require.Len(t, page, 3)
	assert.Equal(t, bson.M{"types.type": "article"}, page[0][0].Value)
	assert.Equal(t, bson.D{{Key: "$skip", Value: int64(10)}}, page[1])
	assert.Equal(t, bson.D{{Key: "$limit", Value: int64(10)}}, page[2])

	// The types facet excludes its own dimension's filter so counts answer
	// "what if I toggled this option".
	types, ok := facet["types"].([]bson.D)
	require.True(t, ok)
	for _, stage := range types {
		assert.NotEqual(t, bson.M{"types.type": "article"}, stage[0].Value)
	}

	// The total applies the full filter set, mirroring the page.
	total, ok := facet["total"].([]bson.D)
	require.True(t, ok)
	require.Len(t, total, 2)
	assert.Equal(t, bson.M{"types.type": "article"}, total[0][0].Value)
	assert.Equal(t, bson.D{{Key: "$count", Value: "value"}}, total[1])
}

func TestPipelineKeywordsFirst(t *testing.T) {
	pipeline := Pipeline(domain.Anchor{Kind: domain.AnchorNone}, domain.QueryParams{Keywords: "quantum"})

	require.NotEmpty(t, pipeline)
	assert.Equal(t, "$match", pipeline[0][0].Key)
	assert.Equal(t, bson.M{"$text": bson.M{"$search": "quantum"}}, pipeline[0][0].Value)

	// Keyword queries sort by relevance inside the page sub-pipeline.
	facet := pipeline[len(pipeline)-1][0].Value.(bson.M)
	page := facet["data"].([]bson.D)
	found := false
	for _, stage := range page {
		if stage[0].Key == "$sort" {
			assert.Equal(t, bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}, stage[0].Value)
			found = true
		}
	}
	assert.True(t, found, "keyword page must sort by text score")
}

func TestCountPredicate(t *testing.T) {
	anchor := domain.Anchor{Kind: domain.AnchorPerson, ID: "p1"}
	params := domain.QueryParams{
		Keywords: "genomics",
		Filters: map[string]string{
			FilterType: "article",
			FilterYear: "2015-2020",
		},
	}

	got := CountPredicate(anchor, params)
	assert.Equal(t, "p1", got["authors.id"])
	assert.Equal(t, bson.M{"$search": "genomics"}, got["$text"])
	assert.Equal(t, []bson.M{
		{"types.type": "article"},
		{"year_published": bson.M{"$gte": 2015, "$lte": 2020}},
	}, got["$and"])
}

func TestCountPredicateNoFilters(t *testing.T) {
	got := CountPredicate(domain.Anchor{Kind: domain.AnchorAffiliation, ID: "i1"}, domain.QueryParams{})
	assert.Equal(t, bson.M{"authors.affiliations.id": "i1"}, got)
}
