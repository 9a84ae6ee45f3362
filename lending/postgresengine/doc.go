// Package postgresengine implements the lending UnitOfWork on PostgreSQL.
//
// Every copy-count change is a single conditional UPDATE whose WHERE clause carries the
// precondition (e.g. available_copies > 0); RowsAffected tells the caller whether it won.
// When no row was affected, a follow-up SELECT inside the same transaction distinguishes
// a missing book from an unavailable one. CHECK constraints on the tables stay in place
// as a second line of defense and never replace the conditional writes.
//
// The Store supports three database adapters (pgx.Pool, sql.DB, sqlx.DB) and renders all
// SQL with goqu's postgres dialect. Transactions run at READ COMMITTED.
//
// The schema ships as embedded goose migrations, see MigrateUp.
package postgresengine
