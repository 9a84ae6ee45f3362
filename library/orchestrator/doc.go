// Package orchestrator provides LoanOrchestrator, the public entry point of the lending engine.
//
// Every operation runs exactly one command or query handler, and every handler runs in exactly one
// transaction of the configured lending.UnitOfWork. The handlers are wrapped with the observable
// wrappers, so metrics, spans and logs are recorded per operation.
//
// The orchestrator never retries. Callers that want to retry concurrency conflicts or
// serialization failures wrap calls with shell.RetryWithExponentialBackoff.
package orchestrator
