// Package metrics provides observability primitives for the polykex identity
// and tunnel core.
//
// The package includes:
//   - Counter, Gauge, and Histogram metric types
//   - Prometheus-compatible metrics export
//   - OpenTelemetry tracing support
//   - Structured logging with levels
//   - Health check functionality
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates metrics from tunnels and streams.
type Collector struct {
	// Handshake metrics
	tunnelsActive    atomic.Uint64
	tunnelsTotal     atomic.Uint64
	tunnelsFailed    atomic.Uint64
	handshakeLatency *Histogram

	// Stream traffic metrics
	bytesBoxed    atomic.Uint64
	bytesUnboxed  atomic.Uint64
	messagesBoxed atomic.Uint64
	messagesOpen  atomic.Uint64

	// Security metrics
	replaysRejected atomic.Uint64
	authFailures    atomic.Uint64
	primitiveErrors atomic.Uint64

	// Error metrics
	boxErrors      atomic.Uint64
	unboxErrors    atomic.Uint64
	formatErrors   atomic.Uint64

	// Performance histograms
	boxLatency   *Histogram
	unboxLatency *Histogram

	// Creation time for uptime tracking
	createdAt time.Time

	// Labels for this collector instance
	labels Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		handshakeLatency: NewHistogram(HandshakeLatencyBuckets),
		boxLatency:       NewHistogram(LatencyBuckets),
		unboxLatency:     NewHistogram(LatencyBuckets),
		createdAt:        time.Now(),
		labels:           labels,
	}
}

// Default bucket configurations for histograms.
var (
	// HandshakeLatencyBuckets for handshake duration (milliseconds).
	HandshakeLatencyBuckets = []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

	// LatencyBuckets for box/unbox operations (microseconds).
	LatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}
)

// --- Tunnel Metrics ---

// TunnelStarted increments active and total tunnel counters.
func (c *Collector) TunnelStarted() {
	c.tunnelsActive.Add(1)
	c.tunnelsTotal.Add(1)
}

// TunnelEnded decrements the active tunnel counter.
func (c *Collector) TunnelEnded() {
	for {
		current := c.tunnelsActive.Load()
		if current == 0 {
			return
		}
		if c.tunnelsActive.CompareAndSwap(current, current-1) {
			return
		}
	}
}

// TunnelFailed records a failed handshake attempt.
func (c *Collector) TunnelFailed() {
	c.tunnelsFailed.Add(1)
}

// RecordHandshakeLatency records a handshake duration (long-term + ephemeral stages).
func (c *Collector) RecordHandshakeLatency(d time.Duration) {
	c.handshakeLatency.Observe(float64(d.Milliseconds()))
}

// --- Stream Traffic Metrics ---

// RecordBytesBoxed adds to the boxed-bytes counter.
func (c *Collector) RecordBytesBoxed(n uint64) {
	c.bytesBoxed.Add(n)
	c.messagesBoxed.Add(1)
}

// RecordBytesUnboxed adds to the unboxed-bytes counter.
func (c *Collector) RecordBytesUnboxed(n uint64) {
	c.bytesUnboxed.Add(n)
	c.messagesOpen.Add(1)
}

// --- Security Metrics ---

// RecordReplayRejected increments the replay-rejection counter.
func (c *Collector) RecordReplayRejected() {
	c.replaysRejected.Add(1)
}

// RecordAuthFailure increments the AuthError counter (AEAD open MAC failure).
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Add(1)
}

// RecordPrimitiveError increments the PrimitiveError counter.
func (c *Collector) RecordPrimitiveError() {
	c.primitiveErrors.Add(1)
}

// --- Error Metrics ---

// RecordBoxError increments the box (seal) error counter.
func (c *Collector) RecordBoxError() {
	c.boxErrors.Add(1)
}

// RecordUnboxError increments the unbox (open) error counter.
func (c *Collector) RecordUnboxError() {
	c.unboxErrors.Add(1)
}

// RecordFormatError increments the container-deserialize FormatError counter.
func (c *Collector) RecordFormatError() {
	c.formatErrors.Add(1)
}

// --- Performance Metrics ---

// RecordBoxLatency records box() operation latency.
func (c *Collector) RecordBoxLatency(d time.Duration) {
	c.boxLatency.Observe(float64(d.Microseconds()))
}

// RecordUnboxLatency records unbox() operation latency.
func (c *Collector) RecordUnboxLatency(d time.Duration) {
	c.unboxLatency.Observe(float64(d.Microseconds()))
}

// --- Snapshot ---

// Snapshot returns a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	TunnelsActive uint64
	TunnelsTotal  uint64
	TunnelsFailed uint64

	BytesBoxed    uint64
	BytesUnboxed  uint64
	MessagesBoxed uint64
	MessagesOpen  uint64

	ReplaysRejected uint64
	AuthFailures    uint64
	PrimitiveErrors uint64

	BoxErrors    uint64
	UnboxErrors  uint64
	FormatErrors uint64

	HandshakeLatency HistogramSummary
	BoxLatency       HistogramSummary
	UnboxLatency     HistogramSummary

	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:        time.Now(),
		Uptime:           time.Since(c.createdAt),
		TunnelsActive:    c.tunnelsActive.Load(),
		TunnelsTotal:     c.tunnelsTotal.Load(),
		TunnelsFailed:    c.tunnelsFailed.Load(),
		BytesBoxed:       c.bytesBoxed.Load(),
		BytesUnboxed:     c.bytesUnboxed.Load(),
		MessagesBoxed:    c.messagesBoxed.Load(),
		MessagesOpen:     c.messagesOpen.Load(),
		ReplaysRejected:  c.replaysRejected.Load(),
		AuthFailures:     c.authFailures.Load(),
		PrimitiveErrors:  c.primitiveErrors.Load(),
		BoxErrors:        c.boxErrors.Load(),
		UnboxErrors:      c.unboxErrors.Load(),
		FormatErrors:     c.formatErrors.Load(),
		HandshakeLatency: c.handshakeLatency.Summary(),
		BoxLatency:       c.boxLatency.Summary(),
		UnboxLatency:     c.unboxLatency.Summary(),
		Labels:           c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	c.tunnelsActive.Store(0)
	c.tunnelsTotal.Store(0)
	c.tunnelsFailed.Store(0)
	c.bytesBoxed.Store(0)
	c.bytesUnboxed.Store(0)
	c.messagesBoxed.Store(0)
	c.messagesOpen.Store(0)
	c.replaysRejected.Store(0)
	c.authFailures.Store(0)
	c.primitiveErrors.Store(0)
	c.boxErrors.Store(0)
	c.unboxErrors.Store(0)
	c.formatErrors.Store(0)
	c.handshakeLatency.Reset()
	c.boxLatency.Reset()
	c.unboxLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector.
// Creates one with default settings if not already initialized.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector.
// Should be called during initialization before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}
