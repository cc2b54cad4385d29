package tracekit

import (
	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"
)

type config struct {
	clock   clockz.Clock
	logger  zerolog.Logger
	sampler Sampler
}

func defaultConfig() config {
	return config{
		clock:  clockz.RealClock,
		logger: zerolog.Nop(),
	}
}

// Option configures the recording implementation.
type Option func(*config)

// WithClock injects a clock for deterministic timestamps in tests.
func WithClock(clock clockz.Clock) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger installs a structured logger for failure-path reporting
// (handler panics, collector drops). Logging is disabled by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithSampler sets the default sampler consulted when a builder has no
// sampler override. Without one, root spans are unsampled and children
// inherit the parent's sampled bit.
func WithSampler(sampler Sampler) Option {
	return func(c *config) {
		c.sampler = sampler
	}
}

// traceComponent is the recording TraceComponent: one tracer and one
// propagation component, fixed at construction.
type traceComponent struct {
	tracer      *RecordingTracer
	propagation PropagationComponent
}

// New creates a recording TraceComponent.
func New(opts ...Option) TraceComponent {
	return traceComponent{
		tracer:      NewTracer(opts...),
		propagation: NewPropagationComponent(),
	}
}

func (tc traceComponent) Tracer() Tracer {
	return tc.tracer
}

func (tc traceComponent) PropagationComponent() PropagationComponent {
	return tc.propagation
}
