package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memengine"
	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
	"github.com/AntonStoeckl/library-lending-go/lending/zapadapters"
	"github.com/AntonStoeckl/library-lending-go/library/orchestrator"
	"github.com/AntonStoeckl/library-lending-go/library/shared/shell"
	"github.com/AntonStoeckl/library-lending-go/library/shared/shell/config"
)

const (
	enginePostgres = "postgres"
	engineMemory   = "memory"

	instrumentationName = "github.com/AntonStoeckl/library-lending-go"
)

var (
	ErrUnknownEngine           = errors.New("engine must be postgres or memory")
	ErrMigrateRequiresPostgres = errors.New("migrations only apply to the postgres engine")
	ErrInvalidArgument         = errors.New("invalid argument")
)

// app holds the process-wide collaborators. They are built on first use so that
// commands like migrate never open an engine they do not need.
type app struct {
	configPath string
	engine     string
	stderr     io.Writer

	cfg          *config.Config
	logger       *zapadapters.Logger
	metrics      lending.MetricsCollector
	tracing      lending.TracingCollector
	orchestrator *orchestrator.LoanOrchestrator
	closers      []func() error
}

func (a *app) config() (config.Config, error) {
	if a.cfg != nil {
		return *a.cfg, nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return config.Config{}, err
	}

	a.cfg = &cfg

	return cfg, nil
}

func (a *app) zapLogger() (*zapadapters.Logger, error) {
	if a.logger != nil {
		return a.logger, nil
	}

	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	logger, err := newZapLogger(cfg.Log, a.stderr)
	if err != nil {
		return nil, err
	}

	a.logger = zapadapters.NewLogger(logger)
	// Sync on a terminal stderr reports EINVAL on some platforms
	a.closers = append(a.closers, func() error {
		_ = a.logger.Sync()
		return nil
	})

	return a.logger, nil
}

// instrument installs OTLP export when an endpoint is configured.
func (a *app) instrument(ctx context.Context) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	if cfg.OTel.Endpoint == "" {
		return nil
	}

	providers, err := config.NewObservabilityProviders(ctx, cfg.OTel, version)
	if err != nil {
		return err
	}

	a.metrics = oteladapters.NewMetricsCollector(providers.MeterProvider.Meter(instrumentationName))
	a.tracing = oteladapters.NewTracingCollector(providers.TracerProvider.Tracer(instrumentationName))
	a.closers = append(a.closers, providers.Shutdown)

	return nil
}

func (a *app) loanOrchestrator(ctx context.Context) (*orchestrator.LoanOrchestrator, error) {
	if a.orchestrator != nil {
		return a.orchestrator, nil
	}

	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	logger, err := a.zapLogger()
	if err != nil {
		return nil, err
	}

	if err = a.instrument(ctx); err != nil {
		return nil, err
	}

	uow, err := a.unitOfWork(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	options := []orchestrator.Option{
		orchestrator.WithPolicy(policy),
		orchestrator.WithContextualLogger(logger),
	}

	if a.metrics != nil {
		options = append(options, orchestrator.WithMetrics(a.metrics))
	}

	if a.tracing != nil {
		options = append(options, orchestrator.WithTracing(a.tracing))
	}

	o, err := orchestrator.New(uow, options...)
	if err != nil {
		return nil, err
	}

	a.orchestrator = o

	return o, nil
}

func (a *app) unitOfWork(ctx context.Context, cfg config.Config, logger *zapadapters.Logger) (lending.UnitOfWork, error) {
	switch a.engine {
	case engineMemory:
		return memengine.New(memengine.WithLogger(logger)), nil
	case enginePostgres:
		return a.postgresStore(ctx, cfg, logger)
	default:
		return nil, errors.Join(ErrUnknownEngine, fmt.Errorf("engine %q", a.engine))
	}
}

func (a *app) postgresStore(ctx context.Context, cfg config.Config, logger *zapadapters.Logger) (*postgresengine.Store, error) {
	options := []postgresengine.Option{postgresengine.WithContextualLogger(logger)}

	if a.metrics != nil {
		options = append(options, postgresengine.WithMetrics(a.metrics))
	}

	if a.tracing != nil {
		options = append(options, postgresengine.WithTracing(a.tracing))
	}

	switch strings.ToLower(cfg.Database.Adapter) {
	case config.AdapterSQLDB:
		db, err := config.NewPostgresSQLDB(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, db.Close)

		return postgresengine.NewStoreFromSQLDB(db, options...)

	case config.AdapterSQLXDB:
		db, err := config.NewPostgresSQLX(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, db.Close)

		return postgresengine.NewStoreFromSQLX(db, options...)

	default:
		pool, err := config.NewPostgresPGXPool(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})

		return postgresengine.NewStoreFromPGXPool(pool, options...)
	}
}

// retry runs fn with the caller-side backoff; concurrency conflicts and serialization failures are retried.
func (a *app) retry(ctx context.Context, operation string, fn shell.RetryableFunc) error {
	var options []shell.RetryOption

	if a.metrics != nil {
		options = append(options, shell.WithMetrics(a.metrics, operation))
	}

	meta, err := shell.RetryWithExponentialBackoff(ctx, fn, options...)

	if meta.Attempts > 1 && a.logger != nil {
		a.logger.InfoContext(ctx, "operation retried",
			shell.LogAttrCommandType, operation,
			"attempts", meta.Attempts,
			shell.LogAttrFinalErrorType, meta.LastErrorType,
		)
	}

	return err
}

// close runs the closers in reverse order of registration.
func (a *app) close() error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	a.closers = nil

	return errors.Join(errs...)
}

func newZapLogger(cfg config.LogConfig, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Join(config.ErrInvalidLogLevel, err)
	}

	var encoder zapcore.Encoder

	switch strings.ToLower(cfg.Format) {
	case config.LogFormatConsole:
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)

	return zap.New(core, zap.AddCaller()), nil
}
