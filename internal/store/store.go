// Package store provides the narrow document-store interface consumed by the
// aggregation engine and its MongoDB implementation. The engine never issues
// raw connection management; it assumes an already-connected pooled handle.
package store

import (
	"context"
	"errors"
)

// ErrNoDocuments indicates that a single-document lookup matched nothing.
var ErrNoDocuments = errors.New("no documents in result")

// Cursor iterates a result set. All decodes every remaining document into
// results, which must be a pointer to a slice.
type Cursor interface {
	All(ctx context.Context, results interface{}) error
}

// Store is the collection-scoped query contract the engine depends on.
// Predicates and pipelines are BSON-shaped values (bson.M, bson.D,
// mongo.Pipeline). Implementations must be safe for concurrent use; the
// engine fans out independent reads against one Store per request.
type Store interface {
	// Find returns documents of collection matching filter.
	Find(ctx context.Context, collection string, filter interface{}) (Cursor, error)

	// FindOne decodes the first document matching filter into result.
	// Returns ErrNoDocuments when nothing matches.
	FindOne(ctx context.Context, collection string, filter interface{}, result interface{}) error

	// Aggregate runs pipeline against collection.
	Aggregate(ctx context.Context, collection string, pipeline interface{}) (Cursor, error)

	// Count returns the number of documents of collection matching filter.
	// The predicate must be identical to the one used for the limited page,
	// or totals will drift from the rendered page.
	Count(ctx context.Context, collection string, filter interface{}) (int64, error)
}
