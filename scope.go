package tracekit

import "context"

// spanKeyType is a private type for context keys to avoid collisions.
type spanKeyType string

const (
	spanKey spanKeyType = "tracekit"
)

// NewContext returns a context derived from parent with span installed as
// the current span.
func NewContext(parent context.Context, span Span) context.Context {
	return context.WithValue(parent, spanKey, span)
}

// FromContext returns the current span from ctx, or BlankSpan if none is
// present. Never returns nil.
func FromContext(ctx context.Context) Span {
	if ctx == nil {
		return BlankSpan
	}
	if span, ok := ctx.Value(spanKey).(Span); ok && span != nil {
		return span
	}
	return BlankSpan
}

// noopScope is the stateless null Scope: there is no context stack to
// restore, so Close does nothing.
type noopScope struct{}

// NoopScope is the singleton null Scope.
var NoopScope Scope = noopScope{}

func (noopScope) Close() {}

// ctxScope is the activation token handed out by the recording tracer.
// Restoration happens through context discipline (the caller's outer
// context is untouched), so Close carries no work and is idempotent.
type ctxScope struct{}

func (ctxScope) Close() {}
