package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	metricTxDuration          = "librarystore_tx_duration_seconds"
	metricTxTotal             = "librarystore_tx_total"
	metricCopyOperations      = "librarystore_copy_operations_total"
	metricIntegrityViolations = "librarystore_integrity_violations_total"
	metricDatabaseErrors      = "librarystore_database_errors_total"

	spanNameTx = "librarystore.tx"

	spanAttrOperation  = "operation"
	spanAttrStatus     = "status"
	spanAttrErrorType  = "error_type"
	spanAttrDurationMS = "duration_ms"
	spanAttrResult     = "result"

	operationTx      = "run_in_tx"
	operationBeginTx = "begin_tx"
	operationCommit  = "commit"

	txStatusCommitted = "committed"
	txStatusRejected  = "rejected"
	txStatusCanceled  = "canceled"
	txStatusPanicked  = "panicked"
	txStatusError     = "error"

	statusError = "error"

	resultApplied = "applied"
	resultRefused = "refused"

	errorTypeBuildQuery = "build_query"
	errorTypeQuery      = "query"
	errorTypeExec       = "exec"
	errorTypeScan       = "scan"
	errorTypeBeginTx    = "begin_tx"
	errorTypeCommit     = "commit"
	errorTypeDecode     = "decode"
)

// logQueryWithDuration logs SQL statements with execution time at debug level if a logger is configured.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery, action string, duration time.Duration) {
	s.logDebug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
}

// logRollback logs a rolled back transaction; business rejections are expected and stay at debug level.
func (s *Store) logRollback(ctx context.Context, cause error, duration time.Duration) {
	args := []any{logAttrErrorCode, lending.ErrorCode(cause), logAttrDurationMS, toMilliseconds(duration)}

	if lending.IsRejection(cause) {
		s.logDebug(ctx, logMsgTxRolledBack, args...)
		return
	}

	s.logInfo(ctx, logMsgTxRolledBack, args...)
}

func (s *Store) logDebug(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.DebugContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Debug(msg, args...)
	}
}

func (s *Store) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.InfoContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Info(msg, args...)
	}
}

func (s *Store) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.WarnContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Warn(msg, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (s *Store) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	case s.logger != nil:
		s.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func (s *Store) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	// Use context-aware method if available
	if contextualCollector, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metric, labels)
}

func (s *Store) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	s.metricsCollector.RecordDuration(metric, duration, labels)
}

// recordErrorMetrics counts a failed database interaction.
func (s *Store) recordErrorMetrics(ctx context.Context, operation, errorType string) {
	s.incrementCounter(ctx, metricDatabaseErrors, map[string]string{
		spanAttrOperation: operation,
		spanAttrStatus:    statusError,
		spanAttrErrorType: errorType,
	})
}

// recordCopyOperation counts one conditional copy-count write and whether it applied.
func (s *Store) recordCopyOperation(ctx context.Context, operation string, applied bool) {
	result := resultRefused
	if applied {
		result = resultApplied
	}

	s.incrementCounter(ctx, metricCopyOperations, map[string]string{
		spanAttrOperation: operation,
		spanAttrResult:    result,
	})
}

func (s *Store) recordIntegrityViolation(ctx context.Context, bookID int64) {
	s.logError(ctx, logMsgIntegrityViolation, lending.ErrInventoryIntegrity, logAttrBookID, bookID)
	s.incrementCounter(ctx, metricIntegrityViolations, map[string]string{
		spanAttrOperation: actionReleaseCopy,
	})
}

// startTxSpan starts a tracing span if the tracing collector is configured.
func (s *Store) startTxSpan(ctx context.Context) (context.Context, lending.SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	return s.tracingCollector.StartSpan(ctx, spanNameTx, map[string]string{spanAttrOperation: operationTx})
}

// finishTx records the transaction metrics and finishes its span.
func (s *Store) finishTx(ctx context.Context, span lending.SpanContext, status string, duration time.Duration) {
	labels := map[string]string{spanAttrOperation: operationTx, spanAttrStatus: status}

	s.recordDuration(ctx, metricTxDuration, duration, labels)
	s.incrementCounter(ctx, metricTxTotal, labels)

	if s.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(status)
	span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", float64(duration.Nanoseconds())/1e6))
	s.tracingCollector.FinishSpan(span, status, map[string]string{spanAttrStatus: status})
}
