package tracekit

import "encoding/binary"

// SamplingParameters is the input to a sampling decision, taken at span
// start before the span exists.
type SamplingParameters struct {
	Name            string
	ParentContext   SpanContext
	TraceID         TraceID
	SpanID          SpanID
	HasRemoteParent bool
}

// Decision is the output of a Sampler.
type Decision struct {
	Sample bool
}

// Sampler decides whether a new span is sampled. Samplers are an injectable
// capability: implementations must be safe for concurrent use.
type Sampler func(SamplingParameters) Decision

// AlwaysSample returns a sampler that samples every span.
func AlwaysSample() Sampler {
	return func(SamplingParameters) Decision {
		return Decision{Sample: true}
	}
}

// NeverSample returns a sampler that samples no spans.
func NeverSample() Sampler {
	return func(SamplingParameters) Decision {
		return Decision{Sample: false}
	}
}

// ProbabilitySampler returns a sampler that samples the given fraction of
// traces, deterministically by trace id so every span in a trace gets the
// same decision. A sampled parent is always honored.
func ProbabilitySampler(fraction float64) Sampler {
	if fraction <= 0 {
		return NeverSample()
	}
	if fraction >= 1 {
		return AlwaysSample()
	}
	bound := uint64(fraction * float64(1<<63))
	return func(p SamplingParameters) Decision {
		if p.ParentContext.IsSampled() {
			return Decision{Sample: true}
		}
		x := binary.BigEndian.Uint64(p.TraceID[8:]) >> 1
		return Decision{Sample: x < bound}
	}
}
