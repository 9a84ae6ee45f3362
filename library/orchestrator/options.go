package orchestrator

import (
	"errors"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

var (
	ErrNilUnitOfWork = errors.New("unit of work must not be nil")
	ErrNilClock      = errors.New("clock must not be nil")
)

// Option configures a LoanOrchestrator.
type Option func(*LoanOrchestrator) error

// WithClock replaces the system clock.
func WithClock(clock lending.Clock) Option {
	return func(o *LoanOrchestrator) error {
		if clock == nil {
			return ErrNilClock
		}

		o.clock = clock

		return nil
	}
}

// WithPolicy replaces lending.DefaultPolicy. The policy is validated by New.
func WithPolicy(policy lending.Policy) Option {
	return func(o *LoanOrchestrator) error {
		o.policy = policy
		return nil
	}
}

// WithLogger sets the logger for all handlers.
func WithLogger(logger lending.Logger) Option {
	return func(o *LoanOrchestrator) error {
		o.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for all handlers; it wins over WithLogger.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(o *LoanOrchestrator) error {
		o.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for all handlers.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(o *LoanOrchestrator) error {
		o.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for all handlers.
func WithTracing(collector lending.TracingCollector) Option {
	return func(o *LoanOrchestrator) error {
		o.tracingCollector = collector
		return nil
	}
}
