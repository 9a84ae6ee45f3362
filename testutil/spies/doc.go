// Package spies provides test doubles that record observability calls: a MetricsCollector,
// a TracingCollector, a ContextualLogger and a slog.Handler.
//
// All spies are safe for concurrent use.
package spies
