package tracekit

import (
	"context"
	"fmt"
)

// No-op implementations of the trace interfaces. Every method performs the
// same argument validation as the recording implementation and then does
// nothing, so "no tracing configured" needs no caller-side branching.
// All instances are stateless singletons, safe for unlimited concurrency.

// NewNoopTraceComponent returns a TraceComponent wired entirely from no-op
// implementations.
func NewNoopTraceComponent() TraceComponent {
	return noopTraceComponent{}
}

type noopTraceComponent struct{}

func (noopTraceComponent) Tracer() Tracer {
	return noopTracerInstance
}

func (noopTraceComponent) PropagationComponent() PropagationComponent {
	return noopPropagationInstance
}

var noopTracerInstance Tracer = noopTracer{}

var (
	_ Tracer      = noopTracer{}
	_ SpanBuilder = noopSpanBuilder{}
)

type noopTracer struct{}

// CurrentSpan always returns BlankSpan: the no-op tracer tracks no
// activations.
func (noopTracer) CurrentSpan(context.Context) Span {
	return BlankSpan
}

func (noopTracer) WithSpan(ctx context.Context, span Span) (context.Context, Scope) {
	if span == nil {
		panic(fmt.Errorf("WithSpan: span: %w", ErrInvalidArgument))
	}
	return ctx, NoopScope
}

// WithSpanFunc returns the unit of work bound to the caller's own context,
// unchanged: activating BlankSpan changes no observable state.
func (noopTracer) WithSpanFunc(ctx context.Context, span Span, fn func(context.Context) error) func() error {
	if span == nil {
		panic(fmt.Errorf("WithSpanFunc: span: %w", ErrInvalidArgument))
	}
	if fn == nil {
		panic(fmt.Errorf("WithSpanFunc: fn: %w", ErrInvalidArgument))
	}
	return func() error { return fn(ctx) }
}

func (t noopTracer) SpanBuilder(_ context.Context, name string) SpanBuilder {
	return t.SpanBuilderWithExplicitParent(name, BlankSpan)
}

func (noopTracer) SpanBuilderWithExplicitParent(name string, _ Span) SpanBuilder {
	return newNoopSpanBuilder(name)
}

func (noopTracer) SpanBuilderWithRemoteParent(name string, _ SpanContext) SpanBuilder {
	return newNoopSpanBuilder(name)
}

func (noopTracer) RecordSpanData(*SpanData) {}

func newNoopSpanBuilder(name string) noopSpanBuilder {
	if name == "" {
		panic(fmt.Errorf("SpanBuilder: name: %w", ErrInvalidArgument))
	}
	return noopSpanBuilder{}
}

// noopSpanBuilder holds no configuration, so the setters are legal no-ops
// and reuse after start is tolerated silently.
type noopSpanBuilder struct{}

func (b noopSpanBuilder) SetSampler(Sampler) SpanBuilder { return b }

func (b noopSpanBuilder) SetParentLinks([]Span) SpanBuilder { return b }

func (b noopSpanBuilder) SetRecordEvents(bool) SpanBuilder { return b }

func (b noopSpanBuilder) SetSpanKind(SpanKind) SpanBuilder { return b }

func (noopSpanBuilder) StartSpan() Span {
	return BlankSpan
}

func (noopSpanBuilder) StartSpanAndRun(ctx context.Context, fn func(context.Context)) {
	if fn == nil {
		panic(fmt.Errorf("StartSpanAndRun: fn: %w", ErrInvalidArgument))
	}
	fn(ctx)
}

func (noopSpanBuilder) StartSpanAndCall(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		panic(fmt.Errorf("StartSpanAndCall: fn: %w", ErrInvalidArgument))
	}
	return fn(ctx)
}

var noopPropagationInstance PropagationComponent = noopPropagationComponent{}

type noopPropagationComponent struct{}

func (noopPropagationComponent) BinaryFormat() BinaryFormat {
	return noopBinaryInstance
}

// B3Format and TraceContextFormat return the identical no-op instance:
// neither slot performs real work, so one stateless format serves both.
func (noopPropagationComponent) B3Format() TextFormat {
	return noopTextInstance
}

func (noopPropagationComponent) TraceContextFormat() TextFormat {
	return noopTextInstance
}

var noopTextInstance TextFormat = noopTextFormat{}

type noopTextFormat struct{}

func (noopTextFormat) Fields() []string {
	return nil
}

// Inject validates its arguments and performs no writes.
func (noopTextFormat) Inject(_ SpanContext, carrier interface{}, setter Setter) error {
	if carrier == nil {
		return fmt.Errorf("Inject: carrier: %w", ErrInvalidArgument)
	}
	if setter == nil {
		return fmt.Errorf("Inject: setter: %w", ErrInvalidArgument)
	}
	return nil
}

func (noopTextFormat) Extract(carrier interface{}, getter Getter) (SpanContext, error) {
	if carrier == nil {
		return Invalid, fmt.Errorf("Extract: carrier: %w", ErrInvalidArgument)
	}
	if getter == nil {
		return Invalid, fmt.Errorf("Extract: getter: %w", ErrInvalidArgument)
	}
	return Invalid, nil
}

var noopBinaryInstance BinaryFormat = noopBinaryFormat{}

type noopBinaryFormat struct{}

func (noopBinaryFormat) ToByteArray(SpanContext) ([]byte, error) {
	return []byte{}, nil
}

func (noopBinaryFormat) FromByteArray(b []byte) (SpanContext, error) {
	if b == nil {
		return Invalid, fmt.Errorf("FromByteArray: bytes: %w", ErrInvalidArgument)
	}
	return Invalid, nil
}
