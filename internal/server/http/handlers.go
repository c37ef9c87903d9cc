package httpserver

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jhonbg/quyca-sub001/internal/domain"
)

// filterKeys are the query parameters forwarded as structured filters.
// Unknown query parameters are ignored, never rejected.
var filterKeys = []string{"product_type", "year", "subject", "open_access"}

// parseQueryParams decodes pagination, search and filter parameters.
func parseQueryParams(q url.Values) domain.QueryParams {
	params := domain.QueryParams{
		Keywords: q.Get("keywords"),
		Sort:     q.Get("sort"),
	}
	if v := q.Get("max"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.Max = n
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.Page = n
		}
	}
	for _, key := range filterKeys {
		if v := q.Get(key); v != "" {
			if params.Filters == nil {
				params.Filters = map[string]string{}
			}
			params.Filters[key] = v
		}
	}
	return params
}

// relatedAffiliations handles
// GET /api/v1/affiliations/{nodeKind}/{nodeID}/related/{relationKind}.
func (s *Server) relatedAffiliations(w http.ResponseWriter, r *http.Request) {
	nodeKind := domain.Kind(chi.URLParam(r, "nodeKind"))
	nodeID := chi.URLParam(r, "nodeID")
	relation := domain.RelationKind(chi.URLParam(r, "relationKind"))

	related, err := s.engine.RelatedAffiliations(r.Context(), nodeID, nodeKind, relation)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]affiliationResponse, len(related))
	for i, a := range related {
		responses[i] = affiliationToResponse(a)
	}
	writeJSON(w, http.StatusOK, relatedResponse{
		Data:       responses,
		TotalCount: len(responses),
	})
}

// affiliationProducts handles
// GET /api/v1/affiliations/{nodeKind}/{nodeID}/products/{productKind}.
func (s *Server) affiliationProducts(w http.ResponseWriter, r *http.Request) {
	anchor := domain.Anchor{Kind: domain.AnchorAffiliation, ID: chi.URLParam(r, "nodeID")}
	s.productsPage(w, r, anchor)
}

// personProducts handles GET /api/v1/person/{personID}/products/{productKind}.
func (s *Server) personProducts(w http.ResponseWriter, r *http.Request) {
	anchor := domain.Anchor{Kind: domain.AnchorPerson, ID: chi.URLParam(r, "personID")}
	s.productsPage(w, r, anchor)
}

// searchProducts handles GET /api/v1/search/products/{productKind}: free-text
// search with no entity scope.
func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	s.productsPage(w, r, domain.Anchor{Kind: domain.AnchorNone})
}

func (s *Server) productsPage(w http.ResponseWriter, r *http.Request, anchor domain.Anchor) {
	kind := domain.ProductKind(chi.URLParam(r, "productKind"))
	params := parseQueryParams(r.URL.Query())

	page, err := s.engine.ProductsPage(r.Context(), kind, anchor, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// personSummary handles GET /api/v1/person/{personID}.
func (s *Server) personSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.PersonSummary(r.Context(), chi.URLParam(r, "personID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// affiliationPlot handles
// GET /api/v1/affiliations/{nodeKind}/{nodeID}/plots/{plotName}.
func (s *Server) affiliationPlot(w http.ResponseWriter, r *http.Request) {
	anchor := domain.Anchor{Kind: domain.AnchorAffiliation, ID: chi.URLParam(r, "nodeID")}
	s.plot(w, r, anchor)
}

// personPlot handles GET /api/v1/person/{personID}/plots/{plotName}.
func (s *Server) personPlot(w http.ResponseWriter, r *http.Request) {
	anchor := domain.Anchor{Kind: domain.AnchorPerson, ID: chi.URLParam(r, "personID")}
	s.plot(w, r, anchor)
}

func (s *Server) plot(w http.ResponseWriter, r *http.Request, anchor domain.Anchor) {
	name := chi.URLParam(r, "plotName")
	params := parseQueryParams(r.URL.Query())

	result, err := s.engine.Plot(r.Context(), anchor, name, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
