package tracekit

import (
	"context"
	"fmt"
)

// builderState is the explicit two-state machine for single-use builders.
type builderState int

const (
	builderConfiguring builderState = iota
	builderStarted
)

// spanBuilder is the recording SpanBuilder. Not safe for concurrent
// configuration: configure then start from one goroutine.
type spanBuilder struct {
	tracer          *RecordingTracer
	sampler         Sampler
	name            string
	parentLinks     []Span
	parent          SpanContext
	kind            SpanKind
	state           builderState
	recordEvents    bool
	recordEventsSet bool
	hasRemoteParent bool
}

func newSpanBuilder(t *RecordingTracer, name string, parent SpanContext, remote bool) *spanBuilder {
	if name == "" {
		panic(fmt.Errorf("SpanBuilder: name: %w", ErrInvalidArgument))
	}
	return &spanBuilder{
		tracer:          t,
		name:            name,
		parent:          parent,
		hasRemoteParent: remote,
	}
}

func (b *spanBuilder) checkConfiguring(method string) {
	if b.state != builderConfiguring {
		panic(fmt.Errorf("%s: builder already started: %w", method, ErrIllegalState))
	}
}

func (b *spanBuilder) SetSampler(sampler Sampler) SpanBuilder {
	b.checkConfiguring("SetSampler")
	b.sampler = sampler
	return b
}

func (b *spanBuilder) SetParentLinks(parentLinks []Span) SpanBuilder {
	b.checkConfiguring("SetParentLinks")
	b.parentLinks = parentLinks
	return b
}

func (b *spanBuilder) SetRecordEvents(recordEvents bool) SpanBuilder {
	b.checkConfiguring("SetRecordEvents")
	b.recordEvents = recordEvents
	b.recordEventsSet = true
	return b
}

func (b *spanBuilder) SetSpanKind(kind SpanKind) SpanBuilder {
	b.checkConfiguring("SetSpanKind")
	b.kind = kind
	return b
}

// StartSpan starts the configured span. Terminal: the builder must not be
// reused afterward.
func (b *spanBuilder) StartSpan() Span {
	b.checkConfiguring("StartSpan")
	b.state = builderStarted

	t := b.tracer

	traceID := b.parent.TraceID
	if !traceID.IsValid() {
		traceID = t.generateTraceID()
	}
	spanID := t.generateSpanID()

	options := b.parent.TraceOptions
	sampler := b.sampler
	if sampler == nil {
		sampler = t.defaultSampler
	}
	if sampler != nil {
		decision := sampler(SamplingParameters{
			Name:            b.name,
			ParentContext:   b.parent,
			TraceID:         traceID,
			SpanID:          spanID,
			HasRemoteParent: b.hasRemoteParent,
		})
		if decision.Sample {
			options |= TraceOptionSampled
		} else {
			options &^= TraceOptionSampled
		}
	}

	recordEvents := options.IsSampled()
	if b.recordEventsSet {
		recordEvents = b.recordEvents
	}

	span := &recordingSpan{
		tracer:       t,
		recordEvents: recordEvents,
		data: SpanData{
			Context: SpanContext{
				TraceID:      traceID,
				SpanID:       spanID,
				TraceOptions: options,
			},
			ParentSpanID:    b.parent.SpanID,
			Name:            b.name,
			Kind:            b.kind,
			StartTime:       t.clock.Now(),
			HasRemoteParent: b.hasRemoteParent,
		},
	}

	for _, parent := range b.parentLinks {
		if parent == nil {
			continue
		}
		span.data.Links = append(span.data.Links, Link{Context: parent.Context()})
	}

	return span
}

// StartSpanAndRun starts the span, runs fn with it current, and ends the
// span on every exit path.
func (b *spanBuilder) StartSpanAndRun(ctx context.Context, fn func(context.Context)) {
	if fn == nil {
		panic(fmt.Errorf("StartSpanAndRun: fn: %w", ErrInvalidArgument))
	}
	span := b.StartSpan()
	defer span.End()
	inner, _ := b.tracer.WithSpan(ctx, span)
	fn(inner)
}

// StartSpanAndCall starts the span, runs fn with it current, ends the span
// on every exit path, and propagates fn's error unchanged.
func (b *spanBuilder) StartSpanAndCall(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		panic(fmt.Errorf("StartSpanAndCall: fn: %w", ErrInvalidArgument))
	}
	span := b.StartSpan()
	defer span.End()
	inner, _ := b.tracer.WithSpan(ctx, span)
	return fn(inner)
}
