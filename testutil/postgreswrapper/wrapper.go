package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
	"github.com/AntonStoeckl/library-lending-go/library/shared/shell/config"
)

// Wrapper holds a Store over the configured adapter plus an admin connection for fixtures.
type Wrapper struct {
	store   *postgresengine.Store
	admin   *sql.DB
	closeFn func()
}

// CreateWrapper creates a Store against the package container with an empty schema.
// The adapter comes from ADAPTER_TYPE; an unknown value panics.
func CreateWrapper(t testing.TB, options ...postgresengine.Option) *Wrapper {
	t.Helper()

	dsn := SharedDSN(t)
	ctx := context.Background()

	admin, err := config.NewPostgresSQLDB(ctx, dsn)
	require.NoError(t, err, "error opening admin connection in test setup")

	w := &Wrapper{admin: admin}

	switch adapterType := strings.ToLower(adapterTypeFromEnv()); adapterType {
	case config.AdapterPGXPool, "":
		pool, poolErr := config.NewPostgresPGXPool(ctx, dsn)
		require.NoError(t, poolErr, "error connecting to DB pool in test setup")

		w.store, err = postgresengine.NewStoreFromPGXPool(pool, options...)
		w.closeFn = pool.Close

	case config.AdapterSQLDB:
		db, dbErr := config.NewPostgresSQLDB(ctx, dsn)
		require.NoError(t, dbErr, "error connecting to DB in test setup")

		w.store, err = postgresengine.NewStoreFromSQLDB(db, options...)
		w.closeFn = func() { _ = db.Close() }

	case config.AdapterSQLXDB:
		db, dbErr := config.NewPostgresSQLX(ctx, dsn)
		require.NoError(t, dbErr, "error connecting to DB in test setup")

		w.store, err = postgresengine.NewStoreFromSQLX(db, options...)
		w.closeFn = func() { _ = db.Close() }

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterType))
	}

	require.NoError(t, err, "error creating store")

	w.Reset(t)
	t.Cleanup(w.Close)

	return w
}

func (w *Wrapper) Store() *postgresengine.Store {
	return w.store
}

// Reset empties all tables and restarts the identity sequences.
func (w *Wrapper) Reset(t testing.TB) {
	t.Helper()
	w.Exec(t, "TRUNCATE TABLE loan_audit, loans, members, books RESTART IDENTITY CASCADE")
}

// Exec runs a statement on the admin connection.
func (w *Wrapper) Exec(t testing.TB, statement string) {
	t.Helper()

	_, err := w.admin.ExecContext(context.Background(), statement)
	require.NoError(t, err, "error executing %q", statement)
}

// QueryInt runs a single-value integer query on the admin connection.
func (w *Wrapper) QueryInt(t testing.TB, query string) int64 {
	t.Helper()

	var value int64
	require.NoError(t, w.admin.QueryRowContext(context.Background(), query).Scan(&value))

	return value
}

// DropCopyCountConstraints removes the CHECK constraints on books for the rest of the test, so a
// test can prove that the conditional writes alone keep the copy counts consistent.
// The constraints are restored on cleanup.
func (w *Wrapper) DropCopyCountConstraints(t testing.TB) {
	t.Helper()

	w.Exec(t, "ALTER TABLE books DROP CONSTRAINT chk_books_total_copies_non_negative")
	w.Exec(t, "ALTER TABLE books DROP CONSTRAINT chk_books_available_copies_range")

	t.Cleanup(func() {
		w.Reset(t)
		w.Exec(t, "ALTER TABLE books ADD CONSTRAINT chk_books_total_copies_non_negative CHECK (total_copies >= 0)")
		w.Exec(t, "ALTER TABLE books ADD CONSTRAINT chk_books_available_copies_range "+
			"CHECK (available_copies >= 0 AND available_copies <= total_copies)")
	})
}

// Close releases the store's connections and the admin connection.
func (w *Wrapper) Close() {
	if w.closeFn != nil {
		w.closeFn()
		w.closeFn = nil
	}

	if w.admin != nil {
		_ = w.admin.Close()
		w.admin = nil
	}
}
