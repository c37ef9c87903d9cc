package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	anchorIDKey  contextKey = "anchor_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithAnchorID adds the anchor entity id of the request to the context.
func WithAnchorID(ctx context.Context, anchorID string) context.Context {
	return context.WithValue(ctx, anchorIDKey, anchorID)
}

// AnchorIDFromContext retrieves the anchor entity id from context.
// Returns empty string if not present.
func AnchorIDFromContext(ctx context.Context) string {
	if v := ctx.Value(anchorIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
