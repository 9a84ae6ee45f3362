package spies

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// MetricsCollectorSpy captures metrics calls. It implements lending.ContextualMetricsCollector;
// context-aware calls are recorded with WithContext set.
type MetricsCollectorSpy struct {
	mu              sync.Mutex
	durationRecords []SpyMetricRecord
	counterRecords  []SpyMetricRecord
	valueRecords    []SpyMetricRecord
}

var _ lending.ContextualMetricsCollector = (*MetricsCollectorSpy)(nil)

// SpyMetricRecord is one captured metrics call.
type SpyMetricRecord struct {
	Metric      string
	Duration    time.Duration
	Value       float64
	Labels      map[string]string
	WithContext bool
}

func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.appendDuration(SpyMetricRecord{Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.appendCounter(SpyMetricRecord{Metric: metric, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.appendValue(SpyMetricRecord{Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) RecordDurationContext(
	_ context.Context,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {
	s.appendDuration(SpyMetricRecord{Metric: metric, Duration: duration, Labels: maps.Clone(labels), WithContext: true})
}

func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.appendCounter(SpyMetricRecord{Metric: metric, Labels: maps.Clone(labels), WithContext: true})
}

func (s *MetricsCollectorSpy) RecordValueContext(
	_ context.Context,
	metric string,
	value float64,
	labels map[string]string,
) {
	s.appendValue(SpyMetricRecord{Metric: metric, Value: value, Labels: maps.Clone(labels), WithContext: true})
}

func (s *MetricsCollectorSpy) appendDuration(record SpyMetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durationRecords = append(s.durationRecords, record)
}

func (s *MetricsCollectorSpy) appendCounter(record SpyMetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counterRecords = append(s.counterRecords, record)
}

func (s *MetricsCollectorSpy) appendValue(record SpyMetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valueRecords = append(s.valueRecords, record)
}

// CounterRecords returns a copy of all captured counter records.
func (s *MetricsCollectorSpy) CounterRecords() []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyMetricRecord(nil), s.counterRecords...)
}

// DurationRecords returns a copy of all captured duration records.
func (s *MetricsCollectorSpy) DurationRecords() []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyMetricRecord(nil), s.durationRecords...)
}

// ValueRecords returns a copy of all captured value records.
func (s *MetricsCollectorSpy) ValueRecords() []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyMetricRecord(nil), s.valueRecords...)
}

// Reset clears all captured metric records.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durationRecords = nil
	s.counterRecords = nil
	s.valueRecords = nil
}

// CountCounter counts counter increments of metric whose labels contain all of the given key/value pairs.
func (s *MetricsCollectorSpy) CountCounter(metric string, labels map[string]string) int {
	return countMatching(s.CounterRecords(), metric, labels)
}

// CountDuration counts duration records of metric whose labels contain all of the given key/value pairs.
func (s *MetricsCollectorSpy) CountDuration(metric string, labels map[string]string) int {
	return countMatching(s.DurationRecords(), metric, labels)
}

// CountValue counts value records of metric whose labels contain all of the given key/value pairs.
func (s *MetricsCollectorSpy) CountValue(metric string, labels map[string]string) int {
	return countMatching(s.ValueRecords(), metric, labels)
}

func countMatching(records []SpyMetricRecord, metric string, labels map[string]string) int {
	count := 0

	for _, record := range records {
		if record.Metric == metric && containsLabels(record.Labels, labels) {
			count++
		}
	}

	return count
}

func containsLabels(have, want map[string]string) bool {
	for k, v := range want {
		if got, ok := have[k]; !ok || got != v {
			return false
		}
	}

	return true
}
