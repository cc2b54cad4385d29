package tracekit

import (
	"sync"
	"time"
)

// SpanKind classifies the role a span plays in an exchange.
type SpanKind int

// Span kinds.
const (
	SpanKindUnspecified SpanKind = iota
	SpanKindServer
	SpanKindClient
)

// Status codes, following the canonical RPC code space.
const (
	StatusCodeOK               int32 = 0
	StatusCodeUnknown          int32 = 2
	StatusCodeDeadlineExceeded int32 = 4
	StatusCodeInternal         int32 = 13
)

// Status describes how a span's operation ended.
type Status struct {
	Code    int32  `json:"code"`
	Message string `json:"message,omitempty"`
}

// Attribute is a single key-value pair recorded on a span. Value is one of
// string, int64, or bool.
type Attribute struct {
	Value interface{}
	Key   string
}

// StringAttribute returns a string-valued Attribute.
func StringAttribute(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64Attribute returns an int64-valued Attribute.
func Int64Attribute(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// BoolAttribute returns a bool-valued Attribute.
func BoolAttribute(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Annotation is a timestamped event recorded on a span.
type Annotation struct {
	Time        time.Time   `json:"time"`
	Description string      `json:"description"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

// Link connects a span to another span in the same or a different trace.
type Link struct {
	Context    SpanContext `json:"context"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// SpanData is the immutable record of a finished span, as delivered to
// completion handlers and collectors.
//
//nolint:govet // Field alignment optimized for JSON serialization order
type SpanData struct {
	Attributes      map[string]interface{} `json:"attributes,omitempty"`
	Annotations     []Annotation           `json:"annotations,omitempty"`
	Links           []Link                 `json:"links,omitempty"`
	StartTime       time.Time              `json:"start_time"`
	EndTime         time.Time              `json:"end_time"`
	Name            string                 `json:"name"`
	Context         SpanContext            `json:"context"`
	ParentSpanID    SpanID                 `json:"parent_span_id,omitempty"`
	Status          Status                 `json:"status"`
	Kind            SpanKind               `json:"kind"`
	HasRemoteParent bool                   `json:"has_remote_parent,omitempty"`
}

// Span is a live handle to one unit of work in a distributed trace.
// Implementations tolerate concurrent recording calls; a span may be ended
// by a different goroutine than the one that started it.
type Span interface {
	// Context returns the span's immutable identity.
	Context() SpanContext

	// IsRecordingEvents reports whether recording calls are kept. Callers
	// can skip building expensive attributes when it returns false.
	IsRecordingEvents() bool

	// AddAttributes records key-value attributes. Later values for the same
	// key overwrite earlier ones.
	AddAttributes(attributes ...Attribute)

	// Annotate records a timestamped event.
	Annotate(description string, attributes ...Attribute)

	// AddLink records a link to another span.
	AddLink(link Link)

	// SetStatus sets the span status. The last call before End wins.
	SetStatus(status Status)

	// End finishes the span and hands its data to the tracer's sink.
	// Safe to call multiple times; only the first call has effect.
	End()
}

// blankSpan is the canonical invalid span: it reports Invalid, records
// nothing, and owns no state, so one value serves unlimited callers.
type blankSpan struct{}

// BlankSpan is the singleton no-op span. It is what CurrentSpan returns
// outside any activation and what the no-op SpanBuilder starts.
var BlankSpan Span = blankSpan{}

func (blankSpan) Context() SpanContext { return Invalid }

func (blankSpan) IsRecordingEvents() bool { return false }

func (blankSpan) AddAttributes(...Attribute) {}

func (blankSpan) Annotate(string, ...Attribute) {}

func (blankSpan) AddLink(Link) {}

func (blankSpan) SetStatus(Status) {}

func (blankSpan) End() {}

// recordingSpan is the live span produced by the recording tracer.
// Safe for concurrent use by multiple goroutines.
type recordingSpan struct {
	tracer       *RecordingTracer
	data         SpanData
	mu           sync.Mutex // Protects data and ended.
	recordEvents bool
	ended        bool
}

// Context returns the span's identity. Identity is fixed at start, so no
// lock is needed.
func (s *recordingSpan) Context() SpanContext {
	return s.data.Context
}

func (s *recordingSpan) IsRecordingEvents() bool {
	return s.recordEvents
}

// AddAttributes records attributes on the span.
// No-op if the span is already ended or not recording events.
func (s *recordingSpan) AddAttributes(attributes ...Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended || !s.recordEvents {
		return
	}

	if s.data.Attributes == nil {
		s.data.Attributes = make(map[string]interface{}, len(attributes))
	}
	for _, a := range attributes {
		s.data.Attributes[a.Key] = a.Value
	}
}

// Annotate records a timestamped event on the span.
// No-op if the span is already ended or not recording events.
func (s *recordingSpan) Annotate(description string, attributes ...Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended || !s.recordEvents {
		return
	}

	s.data.Annotations = append(s.data.Annotations, Annotation{
		Time:        s.tracer.clock.Now(),
		Description: description,
		Attributes:  attributes,
	})
}

// AddLink records a link on the span.
func (s *recordingSpan) AddLink(link Link) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended || !s.recordEvents {
		return
	}

	s.data.Links = append(s.data.Links, link)
}

// SetStatus sets the span status.
func (s *recordingSpan) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}

	s.data.Status = status
}

// End finishes the span and delivers its data to handlers and collectors.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *recordingSpan) End() {
	s.mu.Lock()

	// Prevent double-ending.
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.data.EndTime = s.tracer.clock.Now()

	// Snapshot under the lock so later (discarded) mutations can't race.
	data := s.data
	s.mu.Unlock()

	s.tracer.finishSpan(&data)
}
