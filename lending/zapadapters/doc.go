// Package zapadapters implements lending.Logger and lending.ContextualLogger with go.uber.org/zap.
//
// Key/value args are passed to the SugaredLogger's ...w methods unchanged. The contextual variant
// adds trace_id and span_id fields when the context carries a valid OpenTelemetry span.
package zapadapters
