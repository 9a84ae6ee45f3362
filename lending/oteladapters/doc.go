// Package oteladapters implements the lending observability interfaces on top of OpenTelemetry.
//
// Loggers:
//   - SlogBridgeLogger writes through the otelslog bridge, which correlates records with the active span.
//   - OTelLogger emits records through the OpenTelemetry log API directly.
//
// MetricsCollector maps durations to histograms, counters to counters and values to gauges.
// TracingCollector maps store and handler status strings to span status codes.
//
// Every type here satisfies the interfaces in package lending, so the postgres engine,
// the in-memory engine and the observable handler wrappers accept them unchanged.
package oteladapters
