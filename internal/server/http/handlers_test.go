package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jhonbg/quyca-sub001/internal/config"
	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/engine"
	"github.com/jhonbg/quyca-sub001/internal/enrich"
	"github.com/jhonbg/quyca-sub001/internal/hierarchy"
	"github.com/jhonbg/quyca-sub001/internal/metrics"
	"github.com/jhonbg/quyca-sub001/internal/plots"
	"github.com/jhonbg/quyca-sub001/internal/products"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

func testServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	logger := zerolog.Nop()
	resolver := hierarchy.NewResolver(st, logger)
	runner := products.NewRunner(st, logger)
	reconciler := metrics.NewReconciler(st, logger)
	enricher := enrich.NewEnricher(st, logger, nil)
	maps, err := plots.LoadBaseMaps(config.PlotsConfig{})
	require.NoError(t, err)
	builder := plots.NewBuilder(st, resolver, reconciler, maps, 50, logger, nil)
	eng := engine.New(st, resolver, runner, reconciler, enricher, builder, 4, logger, nil)
	return NewServer(config.ServerConfig{Host: "127.0.0.1", HTTPPort: 0}, config.MetricsConfig{}, eng, nil, logger)
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestParseQueryParams(t *testing.T) {
	q := url.Values{}
	q.Set("keywords", "machine learning")
	q.Set("max", "20")
	q.Set("page", "3")
	q.Set("sort", "citations-")
	q.Set("product_type", "Article")
	q.Set("year", "2015-2020")
	q.Set("unknown", "ignored")

	params := parseQueryParams(q)

	assert.Equal(t, "machine learning", params.Keywords)
	assert.Equal(t, int64(20), params.Max)
	assert.Equal(t, int64(3), params.Page)
	assert.Equal(t, "citations-", params.Sort)
	assert.Equal(t, map[string]string{"product_type": "Article", "year": "2015-2020"}, params.Filters)
}

func TestHealthz(t *testing.T) {
	s := testServer(t, &store.Fake{})
	rec := doRequest(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	s := testServer(t, &store.Fake{})
	rec := doRequest(t, s, http.MethodGet, "/healthz")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestPersonSummaryEndpoint(t *testing.T) {
	st := &store.Fake{
		FindOneFunc: func(collection string, filter interface{}) (interface{}, error) {
			return bson.M{
				"_id":       "p1",
				"full_name": "Jane Doe",
				"external_ids": []bson.M{
					{"id": "0000-0001", "source": "orcid"},
					{"id": "12345678", "source": "Cédula de Ciudadanía"},
				},
				"products_count":  4,
				"citations_count": []bson.M{{"source": "scholar", "count": 9}},
			}, nil
		},
	}

	rec := doRequest(t, testServer(t, st), http.MethodGet, "/api/v1/person/p1/")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary domain.PersonSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "Jane Doe", summary.Person.FullName)
	require.Len(t, summary.Person.ExternalIDs, 1)
	assert.Equal(t, "orcid", summary.Person.ExternalIDs[0].Source)
	assert.Equal(t, int64(4), summary.ProductsCount)
	assert.Equal(t, 9, summary.CitationsCount.Headline)
}

func TestPersonSummaryNotFound(t *testing.T) {
	st := &store.Fake{
		FindOneFunc: func(collection string, filter interface{}) (interface{}, error) {
			return nil, store.ErrNoDocuments
		},
	}
	rec := doRequest(t, testServer(t, st), http.MethodGet, "/api/v1/person/missing/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductsEndpoint(t *testing.T) {
	st := &store.Fake{
		AggregateFunc: func(collection string, pipeline interface{}) ([]interface{}, error) {
			require.Equal(t, domain.CollectionWorks, collection)
			return []interface{}{bson.M{
				"data": []bson.M{{
					"_id":    "w1",
					"titles": []bson.M{{"title": "First", "source": "openalex"}},
				}},
				"total": []bson.M{{"value": 1}},
			}}, nil
		},
	}

	rec := doRequest(t, testServer(t, st), http.MethodGet, "/api/v1/person/p1/products/work?max=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var page domain.ProductsPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "First", page.Data[0].Title)
	assert.Equal(t, int64(1), page.TotalResults)
}

func TestProductsEndpointUnknownKind(t *testing.T) {
	rec := doRequest(t, testServer(t, &store.Fake{}), http.MethodGet, "/api/v1/person/p1/products/thesis")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlotEndpointUnknownName(t *testing.T) {
	rec := doRequest(t, testServer(t, &store.Fake{}), http.MethodGet, "/api/v1/person/p1/plots/bogus")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRelatedAffiliationsEndpoint(t *testing.T) {
	st := &store.Fake{
		FindOneFunc: func(collection string, filter interface{}) (interface{}, error) {
			return bson.M{
				"_id":   "i1",
				"names": []bson.M{{"name": "Universidad", "lang": "es"}},
				"types": []bson.M{{"type": "institution", "source": "scienti"}},
			}, nil
		},
		FindFunc: func(collection string, filter interface{}) ([]interface{}, error) {
			return []interface{}{
				bson.M{
					"_id":   "f1",
					"names": []bson.M{{"name": "Facultad de Ciencias", "lang": "es"}},
					"types": []bson.M{{"type": "faculty", "source": "scienti"}},
				},
			}, nil
		},
	}

	rec := doRequest(t, testServer(t, st), http.MethodGet, "/api/v1/affiliations/institution/i1/related/faculty")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, "f1", resp.Data[0].ID)
	assert.Equal(t, "Facultad de Ciencias", resp.Data[0].Name)
}
