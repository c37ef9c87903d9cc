package store

import (
	"context"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
)

// Compile-time interface verification.
var _ Store = (*Fake)(nil)

// Fake is an in-memory Store for package-level tests. Each hook receives the
// collection and the raw predicate/pipeline so tests can assert on the query
// shape and return canned documents. Unset hooks return empty results.
type Fake struct {
	FindFunc      func(collection string, filter interface{}) ([]interface{}, error)
	FindOneFunc   func(collection string, filter interface{}) (interface{}, error)
	AggregateFunc func(collection string, pipeline interface{}) ([]interface{}, error)
	CountFunc     func(collection string, filter interface{}) (int64, error)
}

// Find implements Store.
func (f *Fake) Find(ctx context.Context, collection string, filter interface{}) (Cursor, error) {
	if f.FindFunc == nil {
		return sliceCursor{}, nil
	}
	docs, err := f.FindFunc(collection, filter)
	if err != nil {
		return nil, err
	}
	return sliceCursor{docs: docs}, nil
}

// FindOne implements Store.
func (f *Fake) FindOne(ctx context.Context, collection string, filter interface{}, result interface{}) error {
	if f.FindOneFunc == nil {
		return ErrNoDocuments
	}
	doc, err := f.FindOneFunc(collection, filter)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNoDocuments
	}
	return decodeInto(doc, result)
}

// Aggregate implements Store.
func (f *Fake) Aggregate(ctx context.Context, collection string, pipeline interface{}) (Cursor, error) {
	if f.AggregateFunc == nil {
		return sliceCursor{}, nil
	}
	docs, err := f.AggregateFunc(collection, pipeline)
	if err != nil {
		return nil, err
	}
	return sliceCursor{docs: docs}, nil
}

// Count implements Store.
func (f *Fake) Count(ctx context.Context, collection string, filter interface{}) (int64, error) {
	if f.CountFunc == nil {
		return 0, nil
	}
	return f.CountFunc(collection, filter)
}

// sliceCursor replays a fixed document slice through the Cursor contract.
type sliceCursor struct {
	docs []interface{}
}

// All decodes every document into results, which must be a pointer to a slice.
func (c sliceCursor) All(ctx context.Context, results interface{}) error {
	out := reflect.ValueOf(results)
	if out.Kind() != reflect.Ptr || out.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("results must be a pointer to a slice, got %T", results)
	}
	slice := out.Elem()
	elemType := slice.Type().Elem()
	for _, doc := range c.docs {
		// Round-trip through BSON so bson.M documents decode into typed
		// structs exactly as the driver would decode them.
		data, err := bson.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal fake document: %w", err)
		}
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(data, elem.Interface()); err != nil {
			return fmt.Errorf("unmarshal fake document: %w", err)
		}
		slice = reflect.Append(slice, elem.Elem())
	}
	out.Elem().Set(slice)
	return nil
}

func decodeInto(doc interface{}, result interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal fake document: %w", err)
	}
	if err := bson.Unmarshal(data, result); err != nil {
		return fmt.Errorf("unmarshal fake document: %w", err)
	}
	return nil
}
