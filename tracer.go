package tracekit

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"
)

// SpanHandler is called when a span completes.
type SpanHandler func(data SpanData)

type handlerEntry struct {
	handler SpanHandler
	id      uint64
	async   bool
}

// RecordingTracer is the Tracer implementation that produces real spans.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field order optimized for functionality over memory
type RecordingTracer struct {
	handlers       []handlerEntry
	collectors     map[string]*Collector
	panicHook      func(handlerID uint64, r interface{})
	workers        *workerPool
	traceIDPool    *IDPool[TraceID]
	spanIDPool     *IDPool[SpanID]
	clock          clockz.Clock
	logger         zerolog.Logger
	defaultSampler Sampler
	handlersLock   sync.RWMutex
	collectorsLock sync.RWMutex
	idPoolOnce     sync.Once
	nextID         atomic.Uint64
	droppedTasks   atomic.Uint64
}

var _ Tracer = (*RecordingTracer)(nil)

// NewTracer creates a recording tracer with the real clock, a disabled
// logger, and no default sampler (children inherit the parent's sampled
// bit; root spans are unsampled unless a sampler says otherwise).
func NewTracer(opts ...Option) *RecordingTracer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RecordingTracer{
		handlers:       make([]handlerEntry, 0),
		collectors:     make(map[string]*Collector),
		clock:          cfg.clock,
		logger:         cfg.logger,
		defaultSampler: cfg.sampler,
	}
}

// ensureIDPools initializes ID pools if not already created.
func (t *RecordingTracer) ensureIDPools() {
	t.idPoolOnce.Do(func() {
		// Pool size based on number of CPUs for optimal contention balance.
		poolSize := runtime.NumCPU() * 100

		t.traceIDPool = NewIDPool(poolSize, func() TraceID {
			var id TraceID
			if _, err := rand.Read(id[:]); err != nil {
				// Fallback to time-based ID if crypto/rand fails.
				binary.BigEndian.PutUint64(id[:8], uint64(t.clock.Now().UnixNano()))
				binary.BigEndian.PutUint64(id[8:], t.nextID.Add(1))
			}
			if !id.IsValid() {
				id[15] = 1
			}
			return id
		})

		t.spanIDPool = NewIDPool(poolSize, func() SpanID {
			var id SpanID
			if _, err := rand.Read(id[:]); err != nil {
				// Fallback to time-based ID if crypto/rand fails.
				binary.BigEndian.PutUint64(id[:], uint64(t.clock.Now().UnixNano())^t.nextID.Add(1))
			}
			if !id.IsValid() {
				id[7] = 1
			}
			return id
		})
	})
}

// CurrentSpan returns the span current in ctx, or BlankSpan if none.
func (*RecordingTracer) CurrentSpan(ctx context.Context) Span {
	return FromContext(ctx)
}

// WithSpan derives a context with span current and returns it with a Scope.
func (*RecordingTracer) WithSpan(ctx context.Context, span Span) (context.Context, Scope) {
	if span == nil {
		panic(fmt.Errorf("WithSpan: span: %w", ErrInvalidArgument))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return NewContext(ctx, span), ctxScope{}
}

// WithSpanFunc returns a function running fn with span current. The
// caller's ctx keeps its prior span on every exit path, including a panic
// from fn.
func (t *RecordingTracer) WithSpanFunc(ctx context.Context, span Span, fn func(context.Context) error) func() error {
	if span == nil {
		panic(fmt.Errorf("WithSpanFunc: span: %w", ErrInvalidArgument))
	}
	if fn == nil {
		panic(fmt.Errorf("WithSpanFunc: fn: %w", ErrInvalidArgument))
	}
	inner, _ := t.WithSpan(ctx, span)
	return func() error { return fn(inner) }
}

// SpanBuilder returns a builder parented on the span current in ctx.
func (t *RecordingTracer) SpanBuilder(ctx context.Context, name string) SpanBuilder {
	return t.SpanBuilderWithExplicitParent(name, t.CurrentSpan(ctx))
}

// SpanBuilderWithExplicitParent returns a builder with a caller-supplied
// parent. A nil parent forces a root span.
func (t *RecordingTracer) SpanBuilderWithExplicitParent(name string, parent Span) SpanBuilder {
	parentCtx := Invalid
	if parent != nil {
		parentCtx = parent.Context()
	}
	return newSpanBuilder(t, name, parentCtx, false)
}

// SpanBuilderWithRemoteParent returns a builder parented on a SpanContext
// received from another process.
func (t *RecordingTracer) SpanBuilderWithRemoteParent(name string, remoteParent SpanContext) SpanBuilder {
	return newSpanBuilder(t, name, remoteParent, remoteParent.IsValid())
}

// RecordSpanData ingests already-finished span data from a different
// recording path and feeds it to the same handlers and collectors as spans
// ended through this tracer. Nil data is dropped.
func (t *RecordingTracer) RecordSpanData(data *SpanData) {
	if data == nil {
		return
	}
	t.finishSpan(data)
}

// OnSpanComplete registers a synchronous handler called when spans complete.
func (t *RecordingTracer) OnSpanComplete(handler SpanHandler) uint64 {
	return t.registerHandler(handler, false)
}

// OnSpanCompleteAsync registers an asynchronous handler called when spans complete.
func (t *RecordingTracer) OnSpanCompleteAsync(handler SpanHandler) uint64 {
	return t.registerHandler(handler, true)
}

func (t *RecordingTracer) registerHandler(handler SpanHandler, async bool) uint64 {
	if handler == nil {
		return 0
	}

	id := t.nextID.Add(1)

	t.handlersLock.Lock()
	defer t.handlersLock.Unlock()

	t.handlers = append(t.handlers, handlerEntry{
		id:      id,
		handler: handler,
		async:   async,
	})

	return id
}

// RemoveHandler removes a handler by ID.
func (t *RecordingTracer) RemoveHandler(id uint64) {
	t.handlersLock.Lock()
	defer t.handlersLock.Unlock()

	// Preserve order
	for i, h := range t.handlers {
		if h.id == id {
			copy(t.handlers[i:], t.handlers[i+1:])
			t.handlers = t.handlers[:len(t.handlers)-1]
			return
		}
	}
}

// SetPanicHook sets a function to be called when a handler panics. Without
// a hook, panics are logged through the configured logger.
func (t *RecordingTracer) SetPanicHook(hook func(handlerID uint64, r interface{})) {
	t.panicHook = hook
}

// AddCollector attaches a collector that receives every finished span.
func (t *RecordingTracer) AddCollector(name string, c *Collector) {
	if c == nil {
		return
	}
	t.collectorsLock.Lock()
	defer t.collectorsLock.Unlock()
	t.collectors[name] = c
}

// RemoveCollector detaches a collector by name.
func (t *RecordingTracer) RemoveCollector(name string) {
	t.collectorsLock.Lock()
	defer t.collectorsLock.Unlock()
	delete(t.collectors, name)
}

// finishSpan routes finished span data to handlers and collectors.
func (t *RecordingTracer) finishSpan(data *SpanData) {
	t.executeHandlers(*data)

	t.collectorsLock.RLock()
	defer t.collectorsLock.RUnlock()
	for _, c := range t.collectors {
		c.Collect(data)
	}
}

// executeHandlers calls all registered handlers with the completed span.
func (t *RecordingTracer) executeHandlers(data SpanData) {
	t.handlersLock.RLock()
	if len(t.handlers) == 0 {
		t.handlersLock.RUnlock()
		return
	}

	handlers := make([]handlerEntry, len(t.handlers))
	copy(handlers, t.handlers)
	t.handlersLock.RUnlock()

	for _, h := range handlers {
		if h.async {
			// Make a copy of h for closure
			entry := h
			if t.workers != nil {
				t.workers.submit(func() {
					t.safeCall(entry, data)
				})
			} else {
				go t.safeCall(entry, data)
			}
		} else {
			t.safeCall(h, data)
		}
	}
}

func (t *RecordingTracer) safeCall(entry handlerEntry, data SpanData) {
	defer func() {
		if r := recover(); r != nil {
			if t.panicHook != nil {
				t.panicHook(entry.id, r)
				return
			}
			t.logger.Error().
				Uint64("handler_id", entry.id).
				Str("span", data.Name).
				Interface("panic", r).
				Msg("span handler panicked")
		}
	}()
	entry.handler(data)
}

// EnableWorkerPool creates a bounded worker pool for async handlers.
func (t *RecordingTracer) EnableWorkerPool(workers, queueSize int) error {
	if t.workers != nil {
		return errors.New("worker pool already enabled")
	}
	if workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if queueSize <= 0 {
		return errors.New("queueSize must be > 0")
	}

	t.workers = &workerPool{
		tasks:   make(chan func(), queueSize),
		stop:    make(chan struct{}),
		dropped: &t.droppedTasks,
	}

	t.workers.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go t.workers.run()
	}

	return nil
}

// DroppedTasks returns the number of handler invocations dropped due to a
// full worker queue.
func (t *RecordingTracer) DroppedTasks() uint64 {
	return t.droppedTasks.Load()
}

// Close shuts down the tracer gracefully and cleans up resources.
// This should be called when the tracer is no longer needed.
func (t *RecordingTracer) Close() {
	// Stop new handler executions
	t.handlersLock.Lock()
	t.handlers = nil
	t.handlersLock.Unlock()

	// Wait for in-flight async tasks
	if t.workers != nil {
		t.workers.shutdown()
		t.workers = nil
	}

	// Close ID pools
	if t.traceIDPool != nil {
		t.traceIDPool.Close()
	}
	if t.spanIDPool != nil {
		t.spanIDPool.Close()
	}
}

// generateTraceID creates a new trace ID from the pool.
func (t *RecordingTracer) generateTraceID() TraceID {
	t.ensureIDPools()
	return t.traceIDPool.Get()
}

// generateSpanID creates a new span ID from the pool.
func (t *RecordingTracer) generateSpanID() SpanID {
	t.ensureIDPools()
	return t.spanIDPool.Get()
}

// workerPool manages a fixed number of workers for processing async handlers.
//
//nolint:govet // Field order optimized for functionality over memory
type workerPool struct {
	tasks   chan func()
	stop    chan struct{}
	dropped *atomic.Uint64
	wg      sync.WaitGroup
}

func (w *workerPool) run() {
	defer w.wg.Done()
	for {
		select {
		case task := <-w.tasks:
			task()
		case <-w.stop:
			return
		}
	}
}

func (w *workerPool) submit(task func()) {
	select {
	case w.tasks <- task:
	default:
		w.dropped.Add(1)
	}
}

func (w *workerPool) shutdown() {
	close(w.stop)
	w.wg.Wait()
}
