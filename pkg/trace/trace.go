// Package trace defines the minimal span abstraction the gateway uses to
// observe its memory pipeline. Implementations decide where spans go; the
// provider only starts and ends them.
package trace

import "context"

// Tracer starts spans around pipeline stages.
type Tracer interface {
	// StartSpan opens a span named name with optional attributes. It
	// returns the (possibly derived) context and the open span.
	StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, Span)
}

// Span is one in-flight traced operation.
type Span interface {
	// SetAttribute attaches an attribute to the span.
	SetAttribute(key string, value any)

	// SetError marks the span as failed.
	SetError(err error)

	// End closes the span.
	End()
}
