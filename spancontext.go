package tracekit

import (
	"encoding/hex"
	"fmt"
)

// TraceID is the 128-bit identifier shared by every span in a trace.
type TraceID [16]byte

// SpanID is the 64-bit identifier of a single span.
type SpanID [8]byte

// TraceOptions is a bitmask of per-trace flags carried alongside the ids.
type TraceOptions byte

// TraceOptionSampled marks the trace as sampled for recording.
const TraceOptionSampled TraceOptions = 1

// SpanContext is the immutable, portable identity of a span: enough to link
// child spans across process boundaries. The zero value is Invalid.
type SpanContext struct {
	TraceID      TraceID
	SpanID       SpanID
	TraceOptions TraceOptions
}

// Invalid is the distinguished all-zero SpanContext denoting "no context".
// Extraction failures and all no-op operations produce it.
var Invalid = SpanContext{}

// IsValid reports whether t is non-zero.
func (t TraceID) IsValid() bool {
	return t != TraceID{}
}

// String returns t as 32 lowercase hex characters.
func (t TraceID) String() string {
	return hex.EncodeToString(t[:])
}

// IsValid reports whether s is non-zero.
func (s SpanID) IsValid() bool {
	return s != SpanID{}
}

// String returns s as 16 lowercase hex characters.
func (s SpanID) String() string {
	return hex.EncodeToString(s[:])
}

// IsSampled reports whether the sampled flag is set.
func (o TraceOptions) IsSampled() bool {
	return o&TraceOptionSampled != 0
}

// IsValid reports whether c carries a usable identity: both ids non-zero.
func (c SpanContext) IsValid() bool {
	return c.TraceID.IsValid() && c.SpanID.IsValid()
}

// IsSampled reports whether the context's sampled flag is set.
func (c SpanContext) IsSampled() bool {
	return c.TraceOptions.IsSampled()
}

// String formats c for logs and error messages.
func (c SpanContext) String() string {
	return fmt.Sprintf("SpanContext{traceID: %s, spanID: %s, options: %02x}",
		c.TraceID, c.SpanID, byte(c.TraceOptions))
}

// TraceIDFromHex parses a 32-character hex string into a TraceID.
func TraceIDFromHex(s string) (TraceID, bool) {
	var id TraceID
	if len(s) != 32 {
		return TraceID{}, false
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return TraceID{}, false
	}
	return id, true
}

// SpanIDFromHex parses a 16-character hex string into a SpanID.
func SpanIDFromHex(s string) (SpanID, bool) {
	var id SpanID
	if len(s) != 16 {
		return SpanID{}, false
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return SpanID{}, false
	}
	return id, true
}
