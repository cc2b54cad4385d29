package tracekit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanContextValidity(t *testing.T) {
	assert.False(t, Invalid.IsValid())
	assert.False(t, Invalid.IsSampled())
	assert.Equal(t, SpanContext{}, Invalid)

	// Both ids must be non-zero.
	assert.False(t, SpanContext{TraceID: testTraceID}.IsValid())
	assert.False(t, SpanContext{SpanID: testSpanID}.IsValid())
	assert.True(t, SpanContext{TraceID: testTraceID, SpanID: testSpanID}.IsValid())
}

func TestSpanContextEquality(t *testing.T) {
	a := SpanContext{TraceID: testTraceID, SpanID: testSpanID, TraceOptions: TraceOptionSampled}
	b := SpanContext{TraceID: testTraceID, SpanID: testSpanID, TraceOptions: TraceOptionSampled}
	assert.Equal(t, a, b)

	c := a
	c.TraceOptions = 0
	assert.NotEqual(t, a, c)
}

func TestTraceOptions(t *testing.T) {
	assert.True(t, TraceOptionSampled.IsSampled())
	assert.False(t, TraceOptions(0).IsSampled())
	assert.True(t, SpanContext{TraceOptions: TraceOptionSampled}.IsSampled())
}

func TestIDHexRoundTrip(t *testing.T) {
	tid, ok := TraceIDFromHex(testTraceID.String())
	assert.True(t, ok)
	assert.Equal(t, testTraceID, tid)

	sid, ok := SpanIDFromHex(testSpanID.String())
	assert.True(t, ok)
	assert.Equal(t, testSpanID, sid)
}

func TestIDFromHexRejectsBadInput(t *testing.T) {
	for _, s := range []string{"", "4bf9", "zz", testTraceID.String() + "00"} {
		_, ok := TraceIDFromHex(s)
		assert.False(t, ok, "TraceIDFromHex(%q)", s)
	}
	for _, s := range []string{"", "00f0", "zzzzzzzzzzzzzzzz", testSpanID.String() + "00"} {
		_, ok := SpanIDFromHex(s)
		assert.False(t, ok, "SpanIDFromHex(%q)", s)
	}
}

func TestSpanContextString(t *testing.T) {
	s := SpanContext{TraceID: testTraceID, SpanID: testSpanID, TraceOptions: TraceOptionSampled}.String()
	assert.Contains(t, s, "4bf92f3577b34da6a3ce929d0e0e4736")
	assert.Contains(t, s, "00f067aa0ba902b7")
	assert.Contains(t, s, "01")
}
