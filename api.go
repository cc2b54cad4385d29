// Package tracekit provides the instrumentation surface of a distributed
// tracing library: span creation, context propagation across process
// boundaries, and telemetry recording, independent of any backend.
//
// The package ships two interchangeable implementations behind one set of
// interfaces. New builds the recording implementation, which produces real
// spans and delivers finished span data to handlers and collectors.
// NewNoopTraceComponent builds the no-op implementation, which validates
// arguments exactly like the recording one but performs no work, so code
// instrumented against this package runs unchanged when tracing is disabled.
//
// Basic Usage:.
//
//	tc := tracekit.New()
//	tracer := tc.Tracer()
//
//	// Start a span as a child of whatever is current in ctx.
//	span := tracer.SpanBuilder(ctx, "handle-request").StartSpan()
//	defer span.End()
//
//	// Make it current for downstream calls.
//	ctx, _ = tracer.WithSpan(ctx, span)
//
//	// Propagate across a process boundary.
//	b3 := tc.PropagationComponent().B3Format()
//	_ = b3.Inject(span.Context(), req.Header, headerSetter)
//
// Thread Safety:.
//
// Tracers, formats, and components are safe for concurrent use by multiple
// goroutines. Spans tolerate concurrent recording calls. SpanBuilders are
// single-writer: configure then start from one goroutine.
//
// Context Propagation:.
//
// The current span travels in a context.Context value, never in ambient
// global state. Activating a span derives a new context; the caller's outer
// context keeps its prior span, so restoration on every exit path is
// inherent to context discipline.
package tracekit

import (
	"context"
	"errors"
)

// ErrInvalidArgument reports a required argument that is absent where the
// contract demands presence. Every implementation, including the no-op one,
// raises it identically: null-object status never relaxes validation.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrIllegalState reports use of a single-use object past its terminal
// state, such as starting an already-started SpanBuilder.
var ErrIllegalState = errors.New("illegal state")

// Tracer creates SpanBuilders and manages the current span.
type Tracer interface {
	// CurrentSpan returns the span current in ctx, or BlankSpan if none.
	// Never returns nil.
	CurrentSpan(ctx context.Context) Span

	// WithSpan derives a context with span installed as current and returns
	// it with a Scope token. Close on the Scope is idempotent; the prior
	// current span remains reachable through the original ctx.
	// Panics with ErrInvalidArgument if span is nil.
	WithSpan(ctx context.Context, span Span) (context.Context, Scope)

	// WithSpanFunc returns a function that runs fn with span current for
	// its duration. The caller's context is untouched regardless of how fn
	// terminates. Panics with ErrInvalidArgument if span or fn is nil.
	WithSpanFunc(ctx context.Context, span Span, fn func(context.Context) error) func() error

	// SpanBuilder returns a builder for a span named name whose parent
	// defaults to CurrentSpan(ctx).
	// Panics with ErrInvalidArgument if name is empty.
	SpanBuilder(ctx context.Context, name string) SpanBuilder

	// SpanBuilderWithExplicitParent returns a builder with a caller-supplied
	// parent. A nil parent forces a root span.
	// Panics with ErrInvalidArgument if name is empty.
	SpanBuilderWithExplicitParent(name string, parent Span) SpanBuilder

	// SpanBuilderWithRemoteParent returns a builder parented on a
	// SpanContext received from another process. An Invalid remote parent
	// forces a root span.
	// Panics with ErrInvalidArgument if name is empty.
	SpanBuilderWithRemoteParent(name string, remoteParent SpanContext) SpanBuilder

	// RecordSpanData ingests already-finished span data from a different
	// recording path. Fire-and-forget; nil data is dropped.
	RecordSpanData(data *SpanData)
}

// SpanBuilder configures and starts a single span. Builders are single-use:
// every Set method is legal only before the span starts, and the three
// start methods are terminal. Starting a recording builder twice panics
// with ErrIllegalState; the stateless no-op builder tolerates reuse.
type SpanBuilder interface {
	// SetSampler overrides the sampler consulted when the span starts.
	SetSampler(sampler Sampler) SpanBuilder

	// SetParentLinks adds additional parent links beyond the primary parent.
	SetParentLinks(parentLinks []Span) SpanBuilder

	// SetRecordEvents forces event recording on or off regardless of the
	// sampling decision.
	SetRecordEvents(recordEvents bool) SpanBuilder

	// SetSpanKind sets the span kind. Default is SpanKindUnspecified.
	SetSpanKind(kind SpanKind) SpanBuilder

	// StartSpan starts and returns the configured span.
	StartSpan() Span

	// StartSpanAndRun starts the span, runs fn with it current, and ends
	// the span on every exit path, including a panic from fn.
	// Panics with ErrInvalidArgument if fn is nil.
	StartSpanAndRun(ctx context.Context, fn func(context.Context))

	// StartSpanAndCall is StartSpanAndRun for a unit of work that can fail.
	// The error from fn propagates to the caller unchanged.
	StartSpanAndCall(ctx context.Context, fn func(context.Context) error) error
}

// Scope is an activation token returned by Tracer.WithSpan. Close releases
// the activation and is safe to call more than once.
type Scope interface {
	Close()
}

// Setter writes a key-value pair into a text carrier.
type Setter func(carrier interface{}, key, value string)

// Getter reads the value for key from a text carrier, reporting absence.
type Getter func(carrier interface{}, key string) (string, bool)

// TextFormat injects and extracts SpanContexts over string key-value
// carriers such as HTTP headers.
type TextFormat interface {
	// Fields returns the header names this format reads and writes.
	Fields() []string

	// Inject writes sc into carrier through setter. Returns
	// ErrInvalidArgument if carrier or setter is nil.
	Inject(sc SpanContext, carrier interface{}, setter Setter) error

	// Extract reads a SpanContext from carrier through getter. Missing or
	// malformed data yields Invalid with a nil error; propagation is
	// best-effort and never breaks the caller's request flow. Returns
	// ErrInvalidArgument only if carrier or getter is nil.
	Extract(carrier interface{}, getter Getter) (SpanContext, error)
}

// BinaryFormat serializes SpanContexts to and from opaque byte buffers.
type BinaryFormat interface {
	// ToByteArray serializes sc.
	ToByteArray(sc SpanContext) ([]byte, error)

	// FromByteArray deserializes b. A nil slice is an absent argument and
	// returns ErrInvalidArgument; a present-but-malformed buffer is an
	// expected condition and yields Invalid with a nil error.
	FromByteArray(b []byte) (SpanContext, error)
}

// PropagationComponent exposes the configured propagation formats. It is
// effectively immutable after construction.
type PropagationComponent interface {
	BinaryFormat() BinaryFormat
	B3Format() TextFormat
	TraceContextFormat() TextFormat
}

// TraceComponent composes one Tracer and one PropagationComponent, both
// fixed at construction.
type TraceComponent interface {
	Tracer() Tracer
	PropagationComponent() PropagationComponent
}
