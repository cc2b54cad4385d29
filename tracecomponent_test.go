package tracekit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestTraceComponentComposition(t *testing.T) {
	tc := New()
	require.NotNil(t, tc.Tracer())
	require.NotNil(t, tc.PropagationComponent())

	// Both accessors return the same fixed instances.
	assert.Same(t, tc.Tracer(), tc.Tracer())
	assert.Equal(t, tc.PropagationComponent(), tc.PropagationComponent())
}

func TestEndToEndRecording(t *testing.T) {
	clock := clockz.NewFakeClock()
	tc := New(WithClock(clock), WithSampler(AlwaysSample()))
	tracer := tc.Tracer()
	ctx := context.Background()

	collector := NewCollector("export", 100)
	collector.SetSyncMode(true)
	defer collector.Close()
	tracer.(*RecordingTracer).AddCollector("export", collector)
	defer tracer.(*RecordingTracer).Close()

	// Client side: start a span and inject its context.
	span := tracer.SpanBuilder(ctx, "client-op").SetSpanKind(SpanKindClient).StartSpan()
	carrier := map[string]string{}
	b3 := tc.PropagationComponent().B3Format()
	require.NoError(t, b3.Inject(span.Context(), carrier, mapSetter))
	span.End()

	// Server side: extract and continue the trace.
	remote, err := b3.Extract(carrier, mapGetter)
	require.NoError(t, err)
	require.True(t, remote.IsValid())
	assert.Equal(t, span.Context(), remote)

	serverSpan := tracer.SpanBuilderWithRemoteParent("server-op", remote).
		SetSpanKind(SpanKindServer).
		StartSpan()
	assert.Equal(t, span.Context().TraceID, serverSpan.Context().TraceID)
	serverSpan.End()

	exported := collector.Export()
	require.Len(t, exported, 2)
	assert.Equal(t, "client-op", exported[0].Name)
	assert.Equal(t, SpanKindClient, exported[0].Kind)
	assert.Equal(t, "server-op", exported[1].Name)
	assert.True(t, exported[1].HasRemoteParent)
}

func TestNoopAndRecordingInterchangeable(t *testing.T) {
	// The same instrumentation runs against both components with no
	// caller-visible branching.
	instrument := func(tc TraceComponent) SpanContext {
		tracer := tc.Tracer()
		ctx := context.Background()

		span := tracer.SpanBuilder(ctx, "op").SetSpanKind(SpanKindClient).StartSpan()
		span.AddAttributes(StringAttribute("k", "v"))

		ctx, scope := tracer.WithSpan(ctx, span)
		defer scope.Close()
		_ = tracer.CurrentSpan(ctx)

		carrier := map[string]string{}
		_ = tc.PropagationComponent().TraceContextFormat().Inject(span.Context(), carrier, mapSetter)
		extracted, err := tc.PropagationComponent().TraceContextFormat().Extract(carrier, mapGetter)
		require.NoError(t, err)

		span.End()
		return extracted
	}

	recording := New(WithSampler(AlwaysSample()))
	got := instrument(recording)
	assert.True(t, got.IsValid(), "recording component round-trips a real context")

	noop := NewNoopTraceComponent()
	got = instrument(noop)
	assert.Equal(t, Invalid, got, "no-op component degrades to Invalid")
}

func TestWithClockOption(t *testing.T) {
	clock := clockz.NewFakeClock()
	start := clock.Now()

	tracer := NewTracer(WithClock(clock), WithSampler(AlwaysSample()))
	defer tracer.Close()

	span := tracer.SpanBuilder(context.Background(), "op").StartSpan()
	assert.Equal(t, start, span.(*recordingSpan).data.StartTime)

	// Nil clock is ignored.
	fallback := NewTracer(WithClock(nil))
	defer fallback.Close()
	assert.NotNil(t, fallback.clock)
}
