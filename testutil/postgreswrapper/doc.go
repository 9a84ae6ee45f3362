// Package postgreswrapper starts a disposable PostgreSQL container for integration tests and
// wraps a postgresengine.Store over the database adapter chosen by the ADAPTER_TYPE
// environment variable (pgx.pool, sql.db or sqlx.db; pgx.pool when unset).
package postgreswrapper
