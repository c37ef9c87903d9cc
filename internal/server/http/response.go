package httpserver

import (
	"errors"
	"net/http"

	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/metrics"
)

// relatedResponse wraps a related-affiliations listing.
type relatedResponse struct {
	Data       []affiliationResponse `json:"data"`
	TotalCount int                   `json:"total_count"`
}

// affiliationResponse is the card view of an affiliation.
type affiliationResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Types          []domain.TypedValue    `json:"types,omitempty"`
	ExternalIDs    []domain.ExternalID    `json:"external_ids,omitempty"`
	ExternalURLs   []domain.ExternalURL   `json:"external_urls,omitempty"`
	Addresses      []domain.Address       `json:"addresses,omitempty"`
	CitationsCount domain.ReconciledCount `json:"citations_count"`
	ProductsCount  int64                  `json:"products_count"`
}

func affiliationToResponse(a domain.Affiliation) affiliationResponse {
	resp := affiliationResponse{
		ID:           a.ID,
		Name:         a.DisplayName(),
		Types:        a.Types,
		ExternalIDs:  a.ExternalIDs,
		ExternalURLs: a.ExternalURLs,
		Addresses:    a.Addresses,
	}
	if a.ProductsCount != nil {
		resp.ProductsCount = *a.ProductsCount
	}
	resp.CitationsCount = metrics.ReconcileCounts(a.CitationsCount)
	return resp
}

// writeDomainError maps typed domain errors to HTTP statuses. Unknown errors
// stay opaque to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "upstream store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
