package tracekit

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Collector buffers finished span data for batch export. It is the sink
// collaborator behind RecordSpanData and span completion: delivery is
// fire-and-forget from the producer's perspective.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field alignment optimized for readability over memory efficiency
type Collector struct {
	spans        []SpanData
	spansCh      chan SpanData
	stopCh       chan struct{}
	done         chan struct{}
	droppedCount atomic.Int64
	name         string
	logger       zerolog.Logger
	mu           sync.Mutex
	closed       atomic.Bool // Track if collector is closed.
	syncMode     bool        // Bypass channel for synchronous collection.
}

// NewCollector creates a new collector with the specified name and buffer size.
// Logging is disabled by default; see SetLogger.
func NewCollector(name string, bufferSize int) *Collector {
	c := &Collector{
		name:    name,
		spans:   make([]SpanData, 0, 8), // Start with small capacity.
		spansCh: make(chan SpanData, bufferSize),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		logger:  zerolog.Nop(),
	}
	go c.start()
	return c
}

// SetLogger installs a logger for backpressure drop reporting.
// Call before the collector is shared between goroutines.
func (c *Collector) SetLogger(logger zerolog.Logger) {
	c.logger = logger.With().Str("collector", c.name).Logger()
}

// start runs the collector's main loop, receiving spans from the channel.
func (c *Collector) start() {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			// Drain remaining spans before shutdown.
			for {
				select {
				case data := <-c.spansCh:
					c.bufferUnsafe(&data)
				default:
					return // Clean shutdown.
				}
			}
		case data := <-c.spansCh:
			c.bufferUnsafe(&data)
		}
	}
}

// Close shuts down the collector gracefully.
func (c *Collector) Close() {
	if c.closed.Swap(true) {
		return
	}
	close(c.stopCh)
	select {
	case <-c.done:
		// Clean shutdown completed.
	case <-time.After(100 * time.Millisecond):
		c.logger.Warn().Msg("collector shutdown timed out")
	}
}

// Collect attempts to buffer span data with backpressure protection.
// If the internal channel is full, the data is dropped and the drop counter
// is incremented. In sync mode, data is collected directly for
// deterministic testing.
func (c *Collector) Collect(data *SpanData) {
	// Nil check to prevent panic in calling goroutine.
	if data == nil {
		// Drop nil data to prevent system crash.
		c.droppedCount.Add(1)
		return
	}

	// Create a deep copy to prevent modifications after collection.
	dataCopy := copySpanData(data)

	if c.syncMode {
		// Direct synchronous collection for tests.
		if c.closed.Load() {
			// Collector is closed - drop data.
			c.droppedCount.Add(1)
			return
		}
		c.bufferSafe(&dataCopy)
		return
	}

	select {
	case c.spansCh <- dataCopy:
		// Successfully queued.
	default:
		// Channel full - drop data to prevent blocking.
		c.droppedCount.Add(1)
		c.logger.Debug().Str("span", data.Name).Msg("span dropped: buffer full")
	}
}

// copySpanData deep-copies the maps and slices a producer could still hold.
func copySpanData(data *SpanData) SpanData {
	out := *data
	if data.Attributes != nil {
		out.Attributes = make(map[string]interface{}, len(data.Attributes))
		for k, v := range data.Attributes {
			out.Attributes[k] = v
		}
	}
	if data.Annotations != nil {
		out.Annotations = make([]Annotation, len(data.Annotations))
		copy(out.Annotations, data.Annotations)
	}
	if data.Links != nil {
		out.Links = make([]Link, len(data.Links))
		copy(out.Links, data.Links)
	}
	return out
}

// bufferUnsafe adds span data to the internal buffer.
// Must be called from the collector goroutine only.
func (c *Collector) bufferUnsafe(data *SpanData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bufferLocked(data)
}

// bufferSafe adds span data to the internal buffer with proper locking.
// Safe to call from any goroutine, used by sync mode.
func (c *Collector) bufferSafe(data *SpanData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bufferLocked(data)
}

func (c *Collector) bufferLocked(data *SpanData) {
	// Check if buffer needs to grow - optimized growth strategy.
	if len(c.spans) >= cap(c.spans) {
		// More aggressive growth for better performance under load.
		currentCap := cap(c.spans)
		var newCap int
		if currentCap < 1024 {
			// Double capacity for small buffers.
			newCap = currentCap * 2
		} else {
			// Grow by 50% for large buffers to avoid excessive memory usage.
			newCap = currentCap + currentCap/2
		}
		if newCap < 32 {
			newCap = 32
		}
		newSlice := make([]SpanData, len(c.spans), newCap)
		copy(newSlice, c.spans)
		c.spans = newSlice
	}
	c.spans = append(c.spans, *data)
}

// Export returns a copy of all buffered span data and clears the internal
// buffer. The returned slice is safe to modify without affecting the
// collector.
func (c *Collector) Export() []SpanData {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.spans) == 0 {
		return nil
	}

	// Create a deep copy of the buffered data.
	result := make([]SpanData, len(c.spans))
	for i := range c.spans {
		result[i] = copySpanData(&c.spans[i])
	}

	// Optimized buffer management after export.
	// More conservative shrinking to avoid allocation churn.
	if cap(c.spans) > 256 && len(c.spans) < cap(c.spans)/8 {
		// Only shrink if buffer is very oversized to avoid allocation churn.
		newCap := cap(c.spans) / 4
		if newCap < 32 {
			newCap = 32
		}
		c.spans = make([]SpanData, 0, newCap)
	} else {
		c.spans = c.spans[:0] // Keep capacity, reset length.
	}

	return result
}

// Count returns the current number of buffered spans.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.spans)
}

// DroppedCount returns the total number of spans dropped due to backpressure.
func (c *Collector) DroppedCount() int64 {
	return c.droppedCount.Load()
}

// SetSyncMode enables synchronous collection for testing.
// When enabled, spans are collected directly without using the channel.
// This makes tests deterministic by eliminating async behavior.
func (c *Collector) SetSyncMode(sync bool) {
	c.syncMode = sync
}

// Reset clears all buffered spans and resets the drop counter.
// Does not affect the running goroutine - use Close for that.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.spans = c.spans[:0]
	c.droppedCount.Store(0)
}
