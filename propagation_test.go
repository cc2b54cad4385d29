package tracekit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTraceID = TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	testSpanID  = SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7}
)

func mapSetter(carrier interface{}, key, value string) {
	carrier.(map[string]string)[key] = value
}

func mapGetter(carrier interface{}, key string) (string, bool) {
	v, ok := carrier.(map[string]string)[key]
	return v, ok
}

func TestB3RoundTrip(t *testing.T) {
	format := NewPropagationComponent().B3Format()
	sc := SpanContext{TraceID: testTraceID, SpanID: testSpanID, TraceOptions: TraceOptionSampled}

	carrier := map[string]string{}
	require.NoError(t, format.Inject(sc, carrier, mapSetter))

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", carrier[b3TraceIDHeader])
	assert.Equal(t, "00f067aa0ba902b7", carrier[b3SpanIDHeader])
	assert.Equal(t, "1", carrier[b3SampledHeader])

	got, err := format.Extract(carrier, mapGetter)
	require.NoError(t, err)
	assert.Equal(t, sc, got)
}

func TestB3Unsampled(t *testing.T) {
	format := NewPropagationComponent().B3Format()
	sc := SpanContext{TraceID: testTraceID, SpanID: testSpanID}

	carrier := map[string]string{}
	require.NoError(t, format.Inject(sc, carrier, mapSetter))
	assert.Equal(t, "0", carrier[b3SampledHeader])

	got, err := format.Extract(carrier, mapGetter)
	require.NoError(t, err)
	assert.Equal(t, sc, got)
}

func TestB3ShortTraceID(t *testing.T) {
	format := NewPropagationComponent().B3Format()
	carrier := map[string]string{
		b3TraceIDHeader: "a3ce929d0e0e4736",
		b3SpanIDHeader:  "00f067aa0ba902b7",
		b3SampledHeader: "true",
	}

	got, err := format.Extract(carrier, mapGetter)
	require.NoError(t, err)

	want := TraceID{0, 0, 0, 0, 0, 0, 0, 0, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	assert.Equal(t, want, got.TraceID)
	assert.True(t, got.IsSampled())
}

func TestB3ExtractMalformed(t *testing.T) {
	format := NewPropagationComponent().B3Format()

	cases := map[string]map[string]string{
		"empty carrier":   {},
		"missing span id": {b3TraceIDHeader: testTraceID.String()},
		"bad trace hex":   {b3TraceIDHeader: "not-hex-at-all-not-hex-at-all-xx", b3SpanIDHeader: testSpanID.String()},
		"bad span hex":    {b3TraceIDHeader: testTraceID.String(), b3SpanIDHeader: "zzzzzzzzzzzzzzzz"},
		"truncated ids":   {b3TraceIDHeader: "4bf9", b3SpanIDHeader: "00f0"},
	}

	for name, carrier := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := format.Extract(carrier, mapGetter)
			require.NoError(t, err, "extraction is best-effort and must not fail")
			assert.Equal(t, Invalid, got)
		})
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	format := NewPropagationComponent().TraceContextFormat()
	sc := SpanContext{TraceID: testTraceID, SpanID: testSpanID, TraceOptions: TraceOptionSampled}

	carrier := map[string]string{}
	require.NoError(t, format.Inject(sc, carrier, mapSetter))
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", carrier[traceparentHeader])

	got, err := format.Extract(carrier, mapGetter)
	require.NoError(t, err)
	assert.Equal(t, sc, got)
}

func TestTraceContextExtractMalformed(t *testing.T) {
	format := NewPropagationComponent().TraceContextFormat()

	cases := map[string]string{
		"garbage":           "garbage",
		"too few segments":  "00-4bf92f3577b34da6a3ce929d0e0e4736",
		"version ff":        "ff-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		"zero trace id":     "00-00000000000000000000000000000000-00f067aa0ba902b7-01",
		"zero span id":      "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01",
		"short trace id":    "00-4bf92f3577b34da6-00f067aa0ba902b7-01",
		"bad flags":         "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-zz",
		"extra segments v0": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01-extra",
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			carrier := map[string]string{traceparentHeader: value}
			got, err := format.Extract(carrier, mapGetter)
			require.NoError(t, err)
			assert.Equal(t, Invalid, got)
		})
	}

	// Missing header is no context, not an error.
	got, err := format.Extract(map[string]string{}, mapGetter)
	require.NoError(t, err)
	assert.Equal(t, Invalid, got)
}

func TestTraceContextFutureVersion(t *testing.T) {
	format := NewPropagationComponent().TraceContextFormat()
	carrier := map[string]string{
		traceparentHeader: "01-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01-future",
	}

	got, err := format.Extract(carrier, mapGetter)
	require.NoError(t, err)
	assert.Equal(t, testTraceID, got.TraceID)
	assert.Equal(t, testSpanID, got.SpanID)
}

func TestBinaryRoundTrip(t *testing.T) {
	format := NewPropagationComponent().BinaryFormat()
	sc := SpanContext{TraceID: testTraceID, SpanID: testSpanID, TraceOptions: TraceOptionSampled}

	b, err := format.ToByteArray(sc)
	require.NoError(t, err)
	assert.Len(t, b, binaryLen)

	got, err := format.FromByteArray(b)
	require.NoError(t, err)
	assert.Equal(t, sc, got)
}

func TestBinaryFromByteArrayMalformed(t *testing.T) {
	format := NewPropagationComponent().BinaryFormat()

	cases := map[string][]byte{
		"empty":         {},
		"truncated":     {0, 0, 1, 2, 3},
		"wrong version": {1, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 1, 1, 2, 3, 4, 5, 6, 7, 8, 2, 1},
	}

	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := format.FromByteArray(b)
			require.NoError(t, err)
			assert.Equal(t, Invalid, got)
		})
	}

	_, err := format.FromByteArray(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFormatValidation(t *testing.T) {
	pc := NewPropagationComponent()

	for _, format := range []TextFormat{pc.B3Format(), pc.TraceContextFormat()} {
		err := format.Inject(Invalid, nil, mapSetter)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		err = format.Inject(Invalid, map[string]string{}, nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = format.Extract(nil, mapGetter)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = format.Extract(map[string]string{}, nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestFields(t *testing.T) {
	pc := NewPropagationComponent()
	assert.Equal(t, []string{"X-B3-TraceId", "X-B3-SpanId", "X-B3-Sampled"}, pc.B3Format().Fields())
	assert.Equal(t, []string{"traceparent"}, pc.TraceContextFormat().Fields())
}
