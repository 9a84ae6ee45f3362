package spies

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// SpyLogRecord represents a recorded log call.
type SpyLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// Attr returns the value that follows key in the record's alternating key/value args.
func (r SpyLogRecord) Attr(key string) (any, bool) {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if k, ok := r.Args[i].(string); ok && k == key {
			return r.Args[i+1], true
		}
	}

	return nil, false
}

// ContextualLoggerSpy captures log calls. It implements both lending.Logger and lending.ContextualLogger.
type ContextualLoggerSpy struct {
	mu      sync.Mutex
	records []SpyLogRecord
}

var (
	_ lending.Logger           = (*ContextualLoggerSpy)(nil)
	_ lending.ContextualLogger = (*ContextualLoggerSpy)(nil)
)

func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

func (s *ContextualLoggerSpy) Debug(msg string, args ...any) { s.record(context.Background(), "debug", msg, args) }
func (s *ContextualLoggerSpy) Info(msg string, args ...any)  { s.record(context.Background(), "info", msg, args) }
func (s *ContextualLoggerSpy) Warn(msg string, args ...any)  { s.record(context.Background(), "warn", msg, args) }
func (s *ContextualLoggerSpy) Error(msg string, args ...any) { s.record(context.Background(), "error", msg, args) }

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyLogRecord{
		Level:   level,
		Message: msg,
		Args:    append([]any(nil), args...),
		Context: ctx,
	})
}

// Records returns a copy of all captured log records.
func (s *ContextualLoggerSpy) Records() []SpyLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyLogRecord(nil), s.records...)
}

// RecordsAt returns the captured records of one level ("debug", "info", "warn" or "error").
func (s *ContextualLoggerSpy) RecordsAt(level string) []SpyLogRecord {
	var records []SpyLogRecord

	for _, record := range s.Records() {
		if record.Level == level {
			records = append(records, record)
		}
	}

	return records
}

// HasMessage reports whether a record with the given level and message was captured.
func (s *ContextualLoggerSpy) HasMessage(level, msg string) bool {
	for _, record := range s.RecordsAt(level) {
		if record.Message == msg {
			return true
		}
	}

	return false
}

func (s *ContextualLoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}
