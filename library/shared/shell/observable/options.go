package observable

import (
	"github.com/AntonStoeckl/library-lending-go/library/shared/shell"
)

// instruments holds the optional observability collaborators shared by both wrappers.
type instruments struct {
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// Option configures a CommandWrapper or QueryWrapper.
type Option func(*instruments) error

// WithMetrics sets the metrics collector.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(i *instruments) error {
		i.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector.
func WithTracing(collector shell.TracingCollector) Option {
	return func(i *instruments) error {
		i.tracingCollector = collector
		return nil
	}
}

// WithContextualLogging sets the contextual logger. It takes precedence over WithLogging.
func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(i *instruments) error {
		i.contextualLogger = logger
		return nil
	}
}

// WithLogging sets the basic logger.
func WithLogging(logger shell.Logger) Option {
	return func(i *instruments) error {
		i.logger = logger
		return nil
	}
}

func applyOptions(opts []Option) (instruments, error) {
	var i instruments

	for _, opt := range opts {
		if err := opt(&i); err != nil {
			return instruments{}, err
		}
	}

	return i, nil
}
