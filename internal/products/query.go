// Package products translates normalized query parameters (keywords, filters,
// sort, pagination) into document-store pipelines shared by the four research
// product kinds, and computes the facet summary the UI renders next to filter
// options.
package products

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jhonbg/quyca-sub001/internal/domain"
)

// Filter dimension names accepted in QueryParams.Filters. Unrecognized keys
// are ignored rather than rejected, so UI additions never break old servers.
const (
	FilterType       = "product_type"
	FilterYear       = "year"
	FilterSubject    = "subject"
	FilterOpenAccess = "open_access"
)

// facetDimensions orders the summarized dimensions. Each facet excludes its
// own dimension's filter and applies every other one, so facet counts answer
// "what would I get if I toggled this option" while page and total always
// apply the full filter set.
var facetDimensions = []string{FilterType, FilterYear, FilterSubject, FilterOpenAccess}

// AnchorMatch returns the match predicate scoping a product query to its
// anchor. Free-text searches with no anchor match everything.
func AnchorMatch(anchor domain.Anchor) bson.M {
	switch anchor.Kind {
	case domain.AnchorAffiliation:
		return bson.M{"authors.affiliations.id": anchor.ID}
	case domain.AnchorPerson:
		return bson.M{"authors.id": anchor.ID}
	default:
		return bson.M{}
	}
}

// sortKeys maps public sort keys to stored fields.
var sortKeys = map[string]string{
	"citations":    "citations_count.count",
	"year":         "year_published",
	"title":        "titles.0.title",
	"alphabetical": "titles.0.title",
}

// sortStage translates a sort expression into a $sort stage. A trailing '-'
// marks descending order. Unknown keys degrade to the default order (nil).
func sortStage(sort string) bson.D {
	key := strings.TrimSpace(sort)
	if key == "" {
		return nil
	}
	direction := 1
	if strings.HasSuffix(key, "-") {
		direction = -1
		key = strings.TrimSuffix(key, "-")
	}
	field, ok := sortKeys[key]
	if !ok {
		return nil
	}
	return bson.D{{Key: "$sort", Value: bson.D{{Key: field, Value: direction}}}}
}

// filterPredicates translates the named filters into per-dimension match
// predicates. Invalid values are dropped silently to keep search UX
// non-blocking.
func filterPredicates(filters map[string]string) map[string]bson.M {
	out := make(map[string]bson.M, len(filters))
	for key, value := range filters {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case FilterType:
			out[key] = bson.M{"types.type": value}
		case FilterYear:
			if pred, ok := yearPredicate(value); ok {
				out[key] = pred
			}
		case FilterSubject:
			out[key] = bson.M{"subjects.subjects.name": value}
		case FilterOpenAccess:
			if b, err := strconv.ParseBool(value); err == nil {
				out[key] = bson.M{"bibliographic_info.is_open_access": b}
			} else {
				out[key] = bson.M{"bibliographic_info.open_access_status": value}
			}
		}
	}
	return out
}

// yearPredicate parses "2020" or "2015-2020" into a year_published predicate.
func yearPredicate(value string) (bson.M, bool) {
	if from, to, ok := strings.Cut(value, "-"); ok {
		start, err1 := strconv.Atoi(strings.TrimSpace(from))
		end, err2 := strconv.Atoi(strings.TrimSpace(to))
		if err1 != nil || err2 != nil || start > end {
			return nil, false
		}
		return bson.M{"year_published": bson.M{"$gte": start, "$lte": end}}, true
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return nil, false
	}
	return bson.M{"year_published": year}, true
}

// matchStages returns $match stages for every predicate except the excluded
// dimension. An empty exclude applies all of them.
func matchStages(preds map[string]bson.M, exclude string) []bson.D {
	stages := make([]bson.D, 0, len(preds))
	for _, dim := range facetDimensions {
		if dim == exclude {
			continue
		}
		if pred, ok := preds[dim]; ok {
			stages = append(stages, bson.D{{Key: "$match", Value: pred}})
		}
	}
	return stages
}

// Pipeline builds the combined page+facets aggregation for one product
// collection. The anchor and keyword stages feed a single $facet, so the
// page, the total and every facet are computed from the same candidate set
// and cannot drift apart.
func Pipeline(anchor domain.Anchor, params domain.QueryParams) mongo.Pipeline {
	params = params.Normalized()
	preds := filterPredicates(params.Filters)

	pipeline := mongo.Pipeline{}

	// The text-search stage must run first so the store can use its text
	// index and attach relevance scores.
	if params.Keywords != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"$text": bson.M{"$search": params.Keywords},
		}}})
	}
	if match := AnchorMatch(anchor); len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}

	// Page sub-pipeline: all filters, then sort, then skip/limit last.
	page := append([]bson.D{}, matchStages(preds, "")...)
	if params.Keywords != "" {
		page = append(page, bson.D{{Key: "$sort", Value: bson.D{
			{Key: "score", Value: bson.M{"$meta": "textScore"}},
		}}})
	} else if sort := sortStage(params.Sort); sort != nil {
		page = append(page, sort)
	}
	page = append(page,
		bson.D{{Key: "$skip", Value: params.SkipValue()}},
		bson.D{{Key: "$limit", Value: params.Max}},
	)

	// Total sub-pipeline: identical predicate to the page, minus skip/limit.
	total := append([]bson.D{}, matchStages(preds, "")...)
	total = append(total, bson.D{{Key: "$count", Value: "value"}})

	types := append([]bson.D{}, matchStages(preds, FilterType)...)
	types = append(types,
		bson.D{{Key: "$unwind", Value: "$types"}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$types.type", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	)

	years := append([]bson.D{}, matchStages(preds, FilterYear)...)
	years = append(years,
		bson.D{{Key: "$match", Value: bson.M{"year_published": bson.M{"$gt": 0}}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$year_published", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	)

	subjects := append([]bson.D{}, matchStages(preds, FilterSubject)...)
	subjects = append(subjects,
		bson.D{{Key: "$unwind", Value: "$subjects"}},
		bson.D{{Key: "$unwind", Value: "$subjects.subjects"}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$subjects.subjects.name", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		bson.D{{Key: "$limit", Value: 20}},
	)

	openAccess := append([]bson.D{}, matchStages(preds, FilterOpenAccess)...)
	openAccess = append(openAccess,
		bson.D{{Key: "$group", Value: bson.M{"_id": "$bibliographic_info.open_access_status", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	)

	pipeline = append(pipeline, bson.D{{Key: "$facet", Value: bson.M{
		"data":        page,
		"total":       total,
		"types":       types,
		"years":       years,
		"subjects":    subjects,
		"open_access": openAccess,
	}}})

	return pipeline
}

// CountPredicate returns the standalone predicate matching the pipeline's
// full filter set, for callers that need an independent count over the same
// candidate set. It must stay identical to the page predicate except for
// skip/limit.
func CountPredicate(anchor domain.Anchor, params domain.QueryParams) bson.M {
	match := AnchorMatch(anchor)
	if params.Keywords != "" {
		match["$text"] = bson.M{"$search": params.Keywords}
	}
	preds := filterPredicates(params.Filters)
	and := make([]bson.M, 0, len(preds))
	for _, dim := range facetDimensions {
		if pred, ok := preds[dim]; ok {
			and = append(and, pred)
		}
	}
	if len(and) > 0 {
		match["$and"] = and
	}
	return match
}
