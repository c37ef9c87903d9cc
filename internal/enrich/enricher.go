// Package enrich post-processes retrieved research products into
// display-ready views: canonical title and product-type selection by source
// priority, author-list truncation for summaries, external identifier
// normalization and venue quartile lookup from sibling collections.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jhonbg/quyca-sub001/internal/domain"
	"github.com/jhonbg/quyca-sub001/internal/observability"
	"github.com/jhonbg/quyca-sub001/internal/store"
)

// AuthorCap bounds the author list on summary views. Multi-author products
// reach hundreds of authors; the full list stays available through
// FullAuthors.
const AuthorCap = 10

// scimagoQuartile is the ranking source consulted for the venue quartile.
const scimagoQuartile = "scimago Best Quartile"

// idSources are the provenance sources whose identifiers remain external ids.
// Every other source contributes resolvable links, not bare identifiers, and
// is reclassified as an external URL.
var idSources = map[string]bool{
	"minciencias": true,
	"scienti":     true,
}

// urlTemplates builds resolvable links from bare identifiers per source.
var urlTemplates = map[string]string{
	"doi":      "https://doi.org/%s",
	"lens":     "https://www.lens.org/lens/scholar/article/%s/main",
	"wos":      "https://www.webofscience.com/wos/woscc/full-record/%s",
	"scopus":   "https://www.scopus.com/record/display.uri?eid=%s",
	"pubmed":   "https://pubmed.ncbi.nlm.nih.gov/%s",
	"openalex": "https://openalex.org/%s",
	"orcid":    "https://orcid.org/%s",
}

// Enricher builds EnrichedProduct views, consulting sibling collections for
// venue rankings and author details.
type Enricher struct {
	store   store.Store
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewEnricher creates a new product enricher. metrics may be nil.
func NewEnricher(st store.Store, logger zerolog.Logger, metrics *observability.Metrics) *Enricher {
	return &Enricher{
		store:   st,
		logger:  logger.With().Str("component", "enrich").Logger(),
		metrics: metrics,
	}
}

// Enrich produces the display-ready view of one product. A product with no
// titles is malformed and yields MalformedEntityError. quartiles maps source
// ids to their ranking tables; pass nil to skip venue enrichment.
func (e *Enricher) Enrich(product domain.Product, quartiles map[string][]domain.Ranking, truncateAuthors bool) (domain.EnrichedProduct, error) {
	title, ok := domain.PickRanked(domain.TitlePriority, product.Titles, func(t domain.Title) string {
		return t.Source
	})
	if !ok {
		return domain.EnrichedProduct{}, domain.NewMalformedEntityError("product", product.ID, "no titles")
	}

	out := domain.EnrichedProduct{
		ID:             product.ID,
		Title:          title.Title,
		Lang:           title.Lang,
		CitationsCount: product.CitationsCount,
		YearPublished:  product.YearPublished,
		Source:         product.Source,
		OpenAccess:     product.BibliographicInfo.IsOpenAccess,
	}

	if t, ok := domain.PickRanked(domain.TypePriority, product.Types, func(t domain.TypedValue) string {
		return t.Source
	}); ok {
		out.ProductType = t.Type
	}

	out.AuthorsCount = len(product.Authors)
	if product.AuthorsCount > out.AuthorsCount {
		out.AuthorsCount = product.AuthorsCount
	}
	out.Authors = product.Authors
	if truncateAuthors && len(out.Authors) > AuthorCap {
		out.Authors = out.Authors[:AuthorCap]
	}

	out.ExternalIDs, out.ExternalURLs = normalizeExternalRefs(product.ExternalIDs, product.ExternalURLs)

	out.Subjects = flattenSubjects(product.Subjects)

	if quartiles != nil && product.Source.ID != "" {
		out.BestQuartile = quartileAt(quartiles[product.Source.ID], product.DatePublished)
	}

	return out, nil
}

// EnrichBatch enriches a batch for list/summary display: author lists are
// truncated, venue quartiles are resolved with one sibling lookup for the
// whole batch, and malformed products are logged and skipped rather than
// failing the batch.
func (e *Enricher) EnrichBatch(ctx context.Context, batch []domain.Product) ([]domain.EnrichedProduct, error) {
	quartiles, err := e.rankingTables(ctx, batch)
	if err != nil {
		// Venue enrichment is auxiliary; degrade to no quartiles.
		e.logger.Warn().Err(err).Msg("venue ranking lookup failed, skipping quartiles")
		quartiles = map[string][]domain.Ranking{}
	}

	out := make([]domain.EnrichedProduct, 0, len(batch))
	for _, product := range batch {
		enriched, err := e.Enrich(product, quartiles, true)
		if err != nil {
			if errors.Is(err, domain.ErrMalformed) {
				e.logger.Warn().Str("product_id", product.ID).Err(err).Msg("skipping malformed product")
				if e.metrics != nil {
					e.metrics.ProductsSkipped.Inc()
				}
				continue
			}
			return nil, err
		}
		out = append(out, enriched)
	}
	return out, nil
}

// FullAuthors returns the untruncated author list of a product with person
// details backfilled from the persons collection.
func (e *Enricher) FullAuthors(ctx context.Context, kind domain.ProductKind, productID string) ([]domain.Author, error) {
	var product domain.Product
	err := e.store.FindOne(ctx, kind.Collection(), bson.M{"_id": productID}, &product)
	if errors.Is(err, store.ErrNoDocuments) {
		return nil, domain.NewNotFoundError("product", productID)
	}
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}

	ids := make([]string, 0, len(product.Authors))
	for _, a := range product.Authors {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return product.Authors, nil
	}

	cur, err := e.store.Find(ctx, domain.CollectionPersons, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("load authors of %s: %w", productID, err)
	}
	var persons []domain.Person
	if err := cur.All(ctx, &persons); err != nil {
		return nil, fmt.Errorf("decode authors of %s: %w", productID, err)
	}
	names := make(map[string]string, len(persons))
	for _, p := range persons {
		names[p.ID] = p.FullName
	}

	authors := make([]domain.Author, len(product.Authors))
	copy(authors, product.Authors)
	for i := range authors {
		if name, ok := names[authors[i].ID]; ok && name != "" {
			authors[i].FullName = name
		}
	}
	return authors, nil
}

// rankingTables fetches the ranking tables of every venue referenced by the
// batch in one query, keyed by source id.
func (e *Enricher) rankingTables(ctx context.Context, batch []domain.Product) (map[string][]domain.Ranking, error) {
	seen := map[string]bool{}
	ids := []string{}
	for _, p := range batch {
		if p.Source.ID != "" && !seen[p.Source.ID] {
			seen[p.Source.ID] = true
			ids = append(ids, p.Source.ID)
		}
	}
	if len(ids) == 0 {
		return map[string][]domain.Ranking{}, nil
	}

	cur, err := e.store.Find(ctx, domain.CollectionSources, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find sources: %w", err)
	}
	var records []domain.SourceRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}

	out := make(map[string][]domain.Ranking, len(records))
	for _, rec := range records {
		out[rec.ID] = rec.Ranking
	}
	return out, nil
}

// quartileAt selects the scimago quartile whose [from_date, to_date] window
// contains the publication date. Window containment is the lookup key, not
// nearest date; when windows unexpectedly overlap, the first match in stored
// order wins.
func quartileAt(rankings []domain.Ranking, datePublished int64) string {
	if datePublished == 0 {
		return ""
	}
	for _, rk := range rankings {
		if rk.Source != scimagoQuartile {
			continue
		}
		if rk.FromDate <= datePublished && datePublished <= rk.ToDate {
			return rk.Rank
		}
	}
	return ""
}

// normalizeExternalRefs keeps minciencias/scienti identifiers as external ids
// and reclassifies every other source as an external URL, built from the
// per-source template when one exists. Unknown sources with unparsable values
// are dropped. Deduplication is by (value, source).
func normalizeExternalRefs(ids []domain.ExternalID, urls []domain.ExternalURL) ([]domain.ExternalID, []domain.ExternalURL) {
	outIDs := []domain.ExternalID{}
	outURLs := []domain.ExternalURL{}
	seenIDs := map[domain.ExternalID]bool{}
	seenURLs := map[domain.ExternalURL]bool{}

	addURL := func(u domain.ExternalURL) {
		if u.URL == "" || seenURLs[u] {
			return
		}
		seenURLs[u] = true
		outURLs = append(outURLs, u)
	}

	for _, id := range ids {
		if idSources[id.Source] {
			if !seenIDs[id] {
				seenIDs[id] = true
				outIDs = append(outIDs, id)
			}
			continue
		}
		if tmpl, ok := urlTemplates[id.Source]; ok {
			addURL(domain.ExternalURL{Source: id.Source, URL: fmt.Sprintf(tmpl, id.ID)})
			continue
		}
		// No template: keep only values that already resolve.
		if isResolvable(id.ID) {
			addURL(domain.ExternalURL{Source: id.Source, URL: id.ID})
		}
	}

	for _, u := range urls {
		addURL(u)
	}

	return outIDs, outURLs
}

func isResolvable(value string) bool {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return false
	}
	u, err := url.Parse(value)
	return err == nil && u.Host != ""
}

func flattenSubjects(groups []domain.SubjectGroup) []domain.Subject {
	seen := map[string]bool{}
	out := []domain.Subject{}
	for _, g := range groups {
		for _, s := range g.Subjects {
			if s.Name == "" || seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			out = append(out, s)
		}
	}
	return out
}
