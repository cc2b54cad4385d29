package tracekit

import (
	"fmt"
	"strings"
)

// NewPropagationComponent returns the recording PropagationComponent: the
// version-0 binary format plus the B3 and W3C trace-context text formats.
func NewPropagationComponent() PropagationComponent {
	return propagationComponent{
		binary:       binaryFormat{},
		b3:           b3Format{},
		traceContext: traceContextFormat{},
	}
}

type propagationComponent struct {
	binary       BinaryFormat
	b3           TextFormat
	traceContext TextFormat
}

func (p propagationComponent) BinaryFormat() BinaryFormat { return p.binary }

func (p propagationComponent) B3Format() TextFormat { return p.b3 }

func (p propagationComponent) TraceContextFormat() TextFormat { return p.traceContext }

// B3 multi-header format.
const (
	b3TraceIDHeader = "X-B3-TraceId"
	b3SpanIDHeader  = "X-B3-SpanId"
	b3SampledHeader = "X-B3-Sampled"
)

type b3Format struct{}

func (b3Format) Fields() []string {
	return []string{b3TraceIDHeader, b3SpanIDHeader, b3SampledHeader}
}

func (b3Format) Inject(sc SpanContext, carrier interface{}, setter Setter) error {
	if carrier == nil {
		return fmt.Errorf("Inject: carrier: %w", ErrInvalidArgument)
	}
	if setter == nil {
		return fmt.Errorf("Inject: setter: %w", ErrInvalidArgument)
	}
	setter(carrier, b3TraceIDHeader, sc.TraceID.String())
	setter(carrier, b3SpanIDHeader, sc.SpanID.String())
	if sc.IsSampled() {
		setter(carrier, b3SampledHeader, "1")
	} else {
		setter(carrier, b3SampledHeader, "0")
	}
	return nil
}

func (b3Format) Extract(carrier interface{}, getter Getter) (SpanContext, error) {
	if carrier == nil {
		return Invalid, fmt.Errorf("Extract: carrier: %w", ErrInvalidArgument)
	}
	if getter == nil {
		return Invalid, fmt.Errorf("Extract: getter: %w", ErrInvalidArgument)
	}

	tid, ok := getter(carrier, b3TraceIDHeader)
	if !ok {
		return Invalid, nil
	}
	// B3 allows 64-bit trace ids; left-pad them to 128 bits.
	if len(tid) == 16 {
		tid = strings.Repeat("0", 16) + tid
	}
	traceID, ok := TraceIDFromHex(tid)
	if !ok {
		return Invalid, nil
	}

	sid, ok := getter(carrier, b3SpanIDHeader)
	if !ok {
		return Invalid, nil
	}
	spanID, ok := SpanIDFromHex(sid)
	if !ok {
		return Invalid, nil
	}

	var options TraceOptions
	if sampled, ok := getter(carrier, b3SampledHeader); ok {
		if sampled == "1" || sampled == "true" {
			options = TraceOptionSampled
		}
	}

	return SpanContext{TraceID: traceID, SpanID: spanID, TraceOptions: options}, nil
}

// W3C trace-context format: a single traceparent header of the form
// "00-<32 hex trace id>-<16 hex span id>-<2 hex flags>".
const traceparentHeader = "traceparent"

type traceContextFormat struct{}

func (traceContextFormat) Fields() []string {
	return []string{traceparentHeader}
}

func (traceContextFormat) Inject(sc SpanContext, carrier interface{}, setter Setter) error {
	if carrier == nil {
		return fmt.Errorf("Inject: carrier: %w", ErrInvalidArgument)
	}
	if setter == nil {
		return fmt.Errorf("Inject: setter: %w", ErrInvalidArgument)
	}
	value := fmt.Sprintf("00-%s-%s-%02x", sc.TraceID, sc.SpanID, byte(sc.TraceOptions))
	setter(carrier, traceparentHeader, value)
	return nil
}

func (traceContextFormat) Extract(carrier interface{}, getter Getter) (SpanContext, error) {
	if carrier == nil {
		return Invalid, fmt.Errorf("Extract: carrier: %w", ErrInvalidArgument)
	}
	if getter == nil {
		return Invalid, fmt.Errorf("Extract: getter: %w", ErrInvalidArgument)
	}

	value, ok := getter(carrier, traceparentHeader)
	if !ok {
		return Invalid, nil
	}

	parts := strings.Split(value, "-")
	if len(parts) < 4 || len(parts[0]) != 2 {
		return Invalid, nil
	}
	// Version ff is forbidden; version 00 has exactly four segments.
	// Unknown future versions are parsed by their leading segments.
	if parts[0] == "ff" {
		return Invalid, nil
	}
	if parts[0] == "00" && len(parts) != 4 {
		return Invalid, nil
	}

	traceID, ok := TraceIDFromHex(parts[1])
	if !ok || !traceID.IsValid() {
		return Invalid, nil
	}
	spanID, ok := SpanIDFromHex(parts[2])
	if !ok || !spanID.IsValid() {
		return Invalid, nil
	}
	if len(parts[3]) != 2 {
		return Invalid, nil
	}
	var flags [1]byte
	if _, err := fmt.Sscanf(parts[3], "%02x", &flags[0]); err != nil {
		return Invalid, nil
	}

	return SpanContext{
		TraceID:      traceID,
		SpanID:       spanID,
		TraceOptions: TraceOptions(flags[0]) & TraceOptionSampled,
	}, nil
}

// Version-0 binary format: a version byte followed by three tagged fields,
// 29 bytes in total.
//
//	[0] [0 traceID(16)] [1 spanID(8)] [2 options(1)]
const (
	binaryVersion      = 0
	binaryTraceIDField = 0
	binarySpanIDField  = 1
	binaryOptionsField = 2
	binaryLen          = 29
)

type binaryFormat struct{}

func (binaryFormat) ToByteArray(sc SpanContext) ([]byte, error) {
	b := make([]byte, 0, binaryLen)
	b = append(b, binaryVersion)
	b = append(b, binaryTraceIDField)
	b = append(b, sc.TraceID[:]...)
	b = append(b, binarySpanIDField)
	b = append(b, sc.SpanID[:]...)
	b = append(b, binaryOptionsField)
	b = append(b, byte(sc.TraceOptions))
	return b, nil
}

func (binaryFormat) FromByteArray(b []byte) (SpanContext, error) {
	if b == nil {
		return Invalid, fmt.Errorf("FromByteArray: bytes: %w", ErrInvalidArgument)
	}
	// Malformed wire data is an expected, recoverable condition.
	if len(b) < binaryLen || b[0] != binaryVersion {
		return Invalid, nil
	}
	if b[1] != binaryTraceIDField || b[18] != binarySpanIDField || b[27] != binaryOptionsField {
		return Invalid, nil
	}

	var sc SpanContext
	copy(sc.TraceID[:], b[2:18])
	copy(sc.SpanID[:], b[19:27])
	sc.TraceOptions = TraceOptions(b[28])
	return sc, nil
}
