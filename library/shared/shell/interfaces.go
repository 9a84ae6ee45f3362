package shell

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Command represents the contract for all command types.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// CommandHandler defines the contract for components that process a command in one transaction.
// The generic parameters C and R ensure type safety between commands and their results.
// Implementations focus on the workflow; observability is added by the observable wrappers.
type CommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, command C) (R, error)
}

// Query represents the contract for all query types.
type Query interface {
	QueryType() string
}

// QueryHandler defines the contract for components that read state without mutating it.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// Interface aliases for convenience when using handler observability.
// These match the lending observability interfaces for consistency.

// MetricsCollector interface for collecting handler performance metrics.
type MetricsCollector = lending.MetricsCollector

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
type ContextualMetricsCollector = lending.ContextualMetricsCollector

// TracingCollector interface for distributed tracing in handlers.
type TracingCollector = lending.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = lending.SpanContext

// ContextualLogger interface for context-aware logging in handlers.
type ContextualLogger = lending.ContextualLogger

// Logger interface for basic logging in handlers.
type Logger = lending.Logger
