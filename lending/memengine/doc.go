// Package memengine provides an in-memory implementation of lending.UnitOfWork.
//
// Transactions are serialized by one mutex and run against a private copy of the
// state which is swapped in only on success, so a failed or canceled transaction
// leaves no trace. Failures can be injected per operation to exercise rollback paths.
//
// It is meant for tests, demos and the CLI's memory engine, not for production data.
package memengine
