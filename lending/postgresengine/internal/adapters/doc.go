// Package adapters provide database adapter implementations for the PostgreSQL lending store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. All adapters open read-committed transactions and expose
// the same Executor surface inside and outside a transaction, so the store's repositories
// never depend on a concrete driver.
package adapters
