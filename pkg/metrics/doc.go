// Package metrics provides observability primitives for the polykex identity
// and tunnel core.
//
// # Overview
//
// This package covers the ambient observability surface the Tunnel and
// Stream packages instrument directly:
//   - Metrics collection (counters, gauges, histograms)
//   - Distributed tracing support (OpenTelemetry-compatible interface)
//   - Structured logging with levels
//
// An HTTP-served metrics/health endpoint has no SPEC_FULL.md component to
// serve it (no network-facing command wraps the Tunnel — network transport
// is an explicit Non-goal), so that surface is not carried here; see
// DESIGN.md's pkg/metrics entry.
//
// # Quick Start
//
// Basic usage with global collector:
//
//	import "github.com/galaxy42/polykex/pkg/metrics"
//
//	// Record metrics
//	metrics.Global().TunnelStarted()
//	metrics.Global().RecordHandshakeLatency(150 * time.Millisecond)
//	metrics.Global().RecordBytesBoxed(1024)
//
// # Metrics Collection
//
// The Collector type aggregates metrics from tunnels and streams:
//
//	collector := metrics.NewCollector(metrics.Labels{
//		"instance": "node-1",
//		"region":   "us-west-2",
//	})
//
//	// Tunnel metrics
//	collector.TunnelStarted()
//	collector.TunnelEnded()
//	collector.RecordHandshakeLatency(d)
//
//	// Stream traffic metrics
//	collector.RecordBytesBoxed(n)
//	collector.RecordBytesUnboxed(n)
//
//	// Security metrics
//	collector.RecordReplayRejected()
//	collector.RecordAuthFailure()
//	collector.RecordPrimitiveError()
//
//	// Get snapshot
//	snap := collector.Snapshot()
//
// # Tracing
//
// The package provides a Tracer interface compatible with OpenTelemetry:
//
//	// Use the simple tracer for testing
//	tracer := metrics.NewSimpleTracer()
//	metrics.SetTracer(tracer)
//
//	// OpenTelemetry adapter (uses global provider)
//	otelTracer := metrics.NewOTelTracer("polykex")
//	metrics.SetTracer(otelTracer)
//	// Build with -tags otel to enable the adapter.
//
//	// Start spans
//	ctx, end := metrics.StartSpan(ctx, metrics.SpanHandshakeInitiator)
//	defer end(nil) // or end(err) on error
//
// # Structured Logging
//
// The Logger provides structured logging with levels:
//
//	logger := metrics.NewLogger(
//		metrics.WithLevel(metrics.LevelInfo),
//		metrics.WithFormat(metrics.FormatJSON),
//		metrics.WithFields(metrics.Fields{"service": "polykex"}),
//	)
//
//	logger.Info("tunnel established", metrics.Fields{
//		"tunnel_id": id,
//		"suite":     "XChaCha20-Poly1305",
//	})
//
//	// Child loggers
//	streamLog := logger.Named("stream").With(metrics.Fields{"id": id})
//	streamLog.Debug("boxing message")
package metrics
