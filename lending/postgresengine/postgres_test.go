package postgresengine_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
	"github.com/AntonStoeckl/library-lending-go/testutil/postgreswrapper"
	"github.com/AntonStoeckl/library-lending-go/testutil/spies"
)

var borrowedAt = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	os.Exit(postgreswrapper.RunPackage(m))
}

func Test_NewStore_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	_, err := postgresengine.NewStoreFromPGXPool(nil)
	assert.ErrorIs(t, err, lending.ErrNilDatabaseConnection)

	_, err = postgresengine.NewStoreFromSQLDB(nil)
	assert.ErrorIs(t, err, lending.ErrNilDatabaseConnection)

	_, err = postgresengine.NewStoreFromSQLX(nil)
	assert.ErrorIs(t, err, lending.ErrNilDatabaseConnection)
}

func Test_Store_AcquireCopy_UntilExhausted(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := postgreswrapper.CreateWrapper(t).Store()
	book := givenBook(t, store, 2)

	// act
	results := make([]bool, 0, 3)
	for range 3 {
		require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
			acquired, err := tx.Inventory().AcquireCopy(ctx, book.ID)
			results = append(results, acquired)
			return err
		}))
	}

	// assert
	assert.Equal(t, []bool{true, true, false}, results)
	assertCopies(t, store, book.ID, 2, 0)
}

func Test_Store_AcquireCopy_DistinguishesNotFoundFromUnavailable(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := postgreswrapper.CreateWrapper(t).Store()
	exhausted := givenBook(t, store, 0)
	deleted := givenBook(t, store, 1)
	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		_, err := tx.Inventory().SoftDeleteBook(ctx, deleted.ID)
		return err
	}))

	// act / assert
	_ = store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		acquired, err := tx.Inventory().AcquireCopy(ctx, exhausted.ID)
		assert.NoError(t, err)
		assert.False(t, acquired)

		_, err = tx.Inventory().AcquireCopy(ctx, deleted.ID)
		assert.ErrorIs(t, err, lending.ErrNotFound)

		_, err = tx.Inventory().AcquireCopy(ctx, 4711)
		var notFound *lending.NotFoundError
		assert.ErrorAs(t, err, &notFound)
		assert.Equal(t, lending.EntityBook, notFound.Entity)

		return nil
	})
}

func Test_Store_ReleaseCopy_RefusesToExceedTotal_AndCountsIntegrityViolation(t *testing.T) {
	// arrange
	ctx := context.Background()
	metrics := spies.NewMetricsCollectorSpy()
	logger := spies.NewContextualLoggerSpy()
	store := postgreswrapper.CreateWrapper(t,
		postgresengine.WithMetrics(metrics),
		postgresengine.WithContextualLogger(logger),
	).Store()
	book := givenBook(t, store, 1)

	// act
	var released bool
	err := store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		var releaseErr error
		released, releaseErr = tx.Inventory().ReleaseCopy(ctx, book.ID)
		return releaseErr
	})

	// assert
	require.NoError(t, err)
	assert.False(t, released)
	assertCopies(t, store, book.ID, 1, 1)
	assert.Equal(t, 1, metrics.CountCounter("librarystore_integrity_violations_total", nil))
	assert.Equal(t, 1, metrics.CountCounter("librarystore_copy_operations_total",
		map[string]string{"operation": "release_copy", "result": "refused"}))
	assert.NotEmpty(t, logger.RecordsAt("error"))
}

func Test_Store_RemoveCopyFromCirculation_OnlyForCopiesOnLoan(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := postgreswrapper.CreateWrapper(t).Store()
	book := givenBook(t, store, 2)

	// act / assert
	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		removed, err := tx.Inventory().RemoveCopyFromCirculation(ctx, book.ID)
		require.NoError(t, err)
		assert.False(t, removed, "no copy is on loan")

		_, err = tx.Inventory().AcquireCopy(ctx, book.ID)
		require.NoError(t, err)

		removed, err = tx.Inventory().RemoveCopyFromCirculation(ctx, book.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		return nil
	}))
	assertCopies(t, store, book.ID, 1, 1)
}

func Test_Store_AddCopies_And_SoftDeleteBook(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := postgreswrapper.CreateWrapper(t).Store()
	book := givenBook(t, store, 1)

	// act / assert
	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		added, err := tx.Inventory().AddCopies(ctx, book.ID, 2)
		require.NoError(t, err)
		assert.True(t, added)

		_, err = tx.Inventory().AddCopies(ctx, book.ID, 0)
		assert.ErrorIs(t, err, lending.ErrInvalidCopyCount)

		_, err = tx.Inventory().AcquireCopy(ctx, book.ID)
		require.NoError(t, err)

		deleted, err := tx.Inventory().SoftDeleteBook(ctx, book.ID)
		require.NoError(t, err)
		assert.False(t, deleted, "a copy is on loan")

		_, err = tx.Inventory().ReleaseCopy(ctx, book.ID)
		require.NoError(t, err)

		deleted, err = tx.Inventory().SoftDeleteBook(ctx, book.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = tx.Inventory().FindBook(ctx, book.ID)
		assert.ErrorIs(t, err, lending.ErrNotFound)

		return nil
	}))
}

func Test_Store_RunInTx_RollsBackOnError(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := postgreswrapper.CreateWrapper(t).Store()
	book := givenBook(t, store, 1)
	errBoom := errors.New("boom")

	// act
	err := store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		acquired, acquireErr := tx.Inventory().AcquireCopy(ctx, book.ID)
		require.NoError(t, acquireErr)
		require.True(t, acquired)

		return errBoom
	})

	// assert
	assert.ErrorIs(t, err, errBoom)
	assertCopies(t, store, book.ID, 1, 1)
}

func Test_Store_RunInTx_RollsBackWhenContextIsCanceled(t *testing.T) {
	// arrange
	store := postgreswrapper.CreateWrapper(t).Store()
	book := givenBook(t, store, 1)
	ctx, cancel := context.WithCancel(context.Background())

	// act
	err := store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		_, acquireErr := tx.Inventory().AcquireCopy(ctx, book.ID)
		require.NoError(t, acquireErr)
		cancel()

		return nil
	})

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assertCopies(t, store, book.ID, 1, 1)
}

func Test_Store_RunInTx_RollsBackAndRepanics(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := postgreswrapper.CreateWrapper(t).Store()
	book := givenBook(t, store, 1)

	// act
	assert.PanicsWithValue(t, "kaboom", func() {
		_ = store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
			_, _ = tx.Inventory().AcquireCopy(ctx, book.ID)
			panic("kaboom")
		})
	})

	// assert
	assertCopies(t, store, book.ID, 1, 1)
}

func Test_Store_ConcurrentAcquire_NeverOversells_WithoutCheckConstraints(t *testing.T) {
	// arrange
	ctx := context.Background()
	wrapper := postgreswrapper.CreateWrapper(t)
	wrapper.DropCopyCountConstraints(t)
	store := wrapper.Store()
	book := givenBook(t, store, 3)

	const borrowers = 20
	var (
		wg       sync.WaitGroup
		acquired atomic.Int32
	)

	// act
	for range borrowers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
				ok, acquireErr := tx.Inventory().AcquireCopy(ctx, book.ID)
				if ok {
					acquired.Add(1)
				}
				return acquireErr
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, int32(3), acquired.Load())
	assertCopies(t, store, book.ID, 3, 0)
}

func Test_Store_Members_FeesAreAddedAndSettledExactly(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := postgreswrapper.CreateWrapper(t).Store()
	member := givenMember(t, store)

	// act / assert
	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		require.NoError(t, tx.Members().AddOutstandingFee(ctx, member.ID, decimal.RequireFromString("1.75")))

		settled, err := tx.Members().SettleOutstandingFee(ctx, member.ID, decimal.RequireFromString("2.00"))
		require.NoError(t, err)
		assert.False(t, settled, "never below zero")

		settled, err = tx.Members().SettleOutstandingFee(ctx, member.ID, decimal.RequireFromString("1.25"))
		require.NoError(t, err)
		assert.True(t, settled)

		found, err := tx.Members().FindMember(ctx, member.ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("0.50").Equal(found.OutstandingFees))
		assert.Equal(t, member.MembershipExpiresAt, found.MembershipExpiresAt)

		assert.ErrorIs(t, tx.Members().AddOutstandingFee(ctx, 4711, decimal.NewFromInt(1)), lending.ErrNotFound)
		_, err = tx.Members().FindMember(ctx, 4711)
		assert.ErrorIs(t, err, lending.ErrNotFound)

		return nil
	}))
}

func Test_Store_Loans_InsertFindAndGuardedUpdate(t *testing.T) {
	// arrange
	ctx := context.Background()
	policy := lending.DefaultPolicy()
	store := postgreswrapper.CreateWrapper(t).Store()
	member := givenMember(t, store)
	book := givenBook(t, store, 1)
	opened, err := lending.OpenLoan(member.ID, book.ID, borrowedAt, policy)
	require.NoError(t, err)

	// act / assert
	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		inserted, insertErr := tx.Loans().InsertLoan(ctx, opened)
		require.NoError(t, insertErr)
		assert.Positive(t, inserted.ID())

		found, findErr := tx.Loans().FindLoan(ctx, inserted.ID())
		require.NoError(t, findErr)
		assert.Equal(t, inserted.Record(), found.Record())

		returned, returnErr := found.Return(decimal.RequireFromString("0.75"), borrowedAt.Add(20*24*time.Hour))
		require.NoError(t, returnErr)

		updated, updateErr := tx.Loans().UpdateLoan(ctx, found, returned)
		require.NoError(t, updateErr)
		assert.True(t, updated)

		updated, updateErr = tx.Loans().UpdateLoan(ctx, found, returned)
		require.NoError(t, updateErr)
		assert.False(t, updated, "stale before no longer matches the stored row")

		reloaded, findErr := tx.Loans().FindLoan(ctx, inserted.ID())
		require.NoError(t, findErr)
		assert.Equal(t, lending.LoanStatusReturned, reloaded.Status())
		fee, hasFee := reloaded.LateFee()
		assert.True(t, hasFee)
		assert.True(t, decimal.RequireFromString("0.75").Equal(fee))

		count, countErr := tx.Loans().CountActiveLoans(ctx, member.ID)
		require.NoError(t, countErr)
		assert.Zero(t, count)

		_, findErr = tx.Loans().FindLoan(ctx, 4711)
		assert.ErrorIs(t, findErr, lending.ErrNotFound)

		return nil
	}))
}

func Test_Store_OverdueLoans_OldestDueDateFirst(t *testing.T) {
	// arrange
	ctx := context.Background()
	policy := lending.DefaultPolicy()
	store := postgreswrapper.CreateWrapper(t).Store()
	member := givenMember(t, store)
	book := givenBook(t, store, 3)

	var ids []int64
	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		for _, offset := range []time.Duration{48 * time.Hour, 0, 24 * time.Hour} {
			loan, err := lending.OpenLoan(member.ID, book.ID, borrowedAt.Add(offset), policy)
			require.NoError(t, err)
			loan, err = tx.Loans().InsertLoan(ctx, loan)
			require.NoError(t, err)
			ids = append(ids, loan.ID())
		}
		return nil
	}))
	asOf := borrowedAt.Add(policy.LoanPeriod + 36*time.Hour)

	// act
	var overdue []lending.Loan
	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		var err error
		overdue, err = tx.Loans().OverdueLoans(ctx, asOf)
		return err
	}))

	// assert
	require.Len(t, overdue, 2)
	assert.Equal(t, ids[1], overdue[0].ID())
	assert.Equal(t, ids[2], overdue[1].ID())
}

func Test_Store_Audit_AppendsAndReadsSnapshots(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := postgreswrapper.CreateWrapper(t).Store()
	member := givenMember(t, store)
	book := givenBook(t, store, 1)

	// act
	var entries []lending.AuditEntry
	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		loan, err := lending.OpenLoan(member.ID, book.ID, borrowedAt, lending.DefaultPolicy())
		require.NoError(t, err)
		loan, err = tx.Loans().InsertLoan(ctx, loan)
		require.NoError(t, err)

		created, err := lending.NewAuditEntry(lending.AuditActionCreated, loan, borrowedAt)
		require.NoError(t, err)
		require.NoError(t, tx.Audit().Append(ctx, created))

		renewed, err := loan.Renew(7, borrowedAt.Add(time.Hour))
		require.NoError(t, err)
		renewedEntry, err := lending.NewAuditEntry(lending.AuditActionRenewed, renewed, borrowedAt.Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, tx.Audit().Append(ctx, renewedEntry))

		entries, err = tx.Audit().EntriesForLoan(ctx, loan.ID())
		return err
	}))

	// assert
	require.Len(t, entries, 2)
	assert.Equal(t, lending.AuditActionCreated, entries[0].Action)
	assert.Equal(t, lending.AuditActionRenewed, entries[1].Action)
	assert.Equal(t, 1, entries[1].Loan.RenewalCount)
	assert.Equal(t, borrowedAt, entries[0].OccurredAt)
}

func Test_Store_RunInTx_RecordsTransactionMetricsAndSpans(t *testing.T) {
	// arrange
	ctx := context.Background()
	metrics := spies.NewMetricsCollectorSpy()
	tracing := spies.NewTracingCollectorSpy()
	store := postgreswrapper.CreateWrapper(t,
		postgresengine.WithMetrics(metrics),
		postgresengine.WithTracing(tracing),
	).Store()

	// act
	require.NoError(t, store.RunInTx(ctx, func(context.Context, lending.Tx) error { return nil }))
	_ = store.RunInTx(ctx, func(context.Context, lending.Tx) error { return lending.ErrUnavailable })

	// assert
	assert.Equal(t, 1, metrics.CountCounter("librarystore_tx_total", map[string]string{"status": "committed"}))
	assert.Equal(t, 1, metrics.CountCounter("librarystore_tx_total", map[string]string{"status": "rejected"}))
	assert.Equal(t, 2, metrics.CountDuration("librarystore_tx_duration_seconds", nil))

	spans := tracing.SpansNamed("librarystore.tx")
	require.Len(t, spans, 2)
	assert.Equal(t, "committed", spans[0].FinishStatus)
	assert.Equal(t, "rejected", spans[1].FinishStatus)
}

func givenBook(t *testing.T, store *postgresengine.Store, copies int) lending.Book {
	t.Helper()

	book, err := lending.NewBook("The Left Hand of Darkness", copies, borrowedAt)
	require.NoError(t, err)

	require.NoError(t, store.RunInTx(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		book, err = tx.Inventory().AddBook(ctx, book)
		return err
	}))

	return book
}

func givenMember(t *testing.T, store *postgresengine.Store) lending.Member {
	t.Helper()

	member, err := lending.NewMember(true, borrowedAt.AddDate(1, 0, 0), 5)
	require.NoError(t, err)

	require.NoError(t, store.RunInTx(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		member, err = tx.Members().RegisterMember(ctx, member)
		return err
	}))

	return member
}

func assertCopies(t *testing.T, store *postgresengine.Store, bookID int64, total, available int) {
	t.Helper()

	require.NoError(t, store.RunInTx(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		book, err := tx.Inventory().FindBook(ctx, bookID)
		require.NoError(t, err)
		assert.Equal(t, total, book.TotalCopies, "total copies")
		assert.Equal(t, available, book.AvailableCopies, "available copies")

		return nil
	}))
}
