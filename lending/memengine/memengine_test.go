package memengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memengine"
)

func givenBook(t *testing.T, store *memengine.Store, copies int) lending.Book {
	t.Helper()

	var added lending.Book
	err := store.RunInTx(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		book, err := lending.NewBook("Solaris", copies, time.Now())
		if err != nil {
			return err
		}

		added, err = tx.Inventory().AddBook(ctx, book)
		return err
	})
	require.NoError(t, err, "error in test setup: add book")

	return added
}

func Test_Store_AcquireCopy_UntilExhausted(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memengine.New()
	book := givenBook(t, store, 2)

	// act
	var results []bool
	err := store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		for i := 0; i < 3; i++ {
			acquired, err := tx.Inventory().AcquireCopy(ctx, book.ID)
			if err != nil {
				return err
			}
			results = append(results, acquired)
		}
		return nil
	})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, results)
	committed, _ := store.Book(book.ID)
	assert.Equal(t, 0, committed.AvailableCopies)
	assert.NoError(t, store.CheckInvariants())
}

func Test_Store_AcquireCopy_DistinguishesNotFoundFromUnavailable(t *testing.T) {
	ctx := context.Background()
	store := memengine.New()
	book := givenBook(t, store, 0)

	err := store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		acquired, err := tx.Inventory().AcquireCopy(ctx, book.ID)
		assert.NoError(t, err)
		assert.False(t, acquired)

		acquired, err = tx.Inventory().AcquireCopy(ctx, 999)
		assert.ErrorIs(t, err, lending.ErrNotFound)
		assert.False(t, acquired)

		return nil
	})

	assert.NoError(t, err)
}

func Test_Store_ReleaseCopy_RefusesToExceedTotal(t *testing.T) {
	ctx := context.Background()
	store := memengine.New()
	book := givenBook(t, store, 1)

	err := store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		released, err := tx.Inventory().ReleaseCopy(ctx, book.ID)
		assert.NoError(t, err)
		assert.False(t, released, "availableCopies is already at totalCopies")

		return nil
	})

	assert.NoError(t, err)
	committed, _ := store.Book(book.ID)
	assert.Equal(t, 1, committed.AvailableCopies)
}

func Test_Store_RunInTx_RollsBackOnError(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memengine.New()
	book := givenBook(t, store, 1)
	businessErr := errors.New("loan insert failed")

	// act
	err := store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		acquired, err := tx.Inventory().AcquireCopy(ctx, book.ID)
		require.NoError(t, err)
		require.True(t, acquired)

		return businessErr
	})

	// assert
	assert.ErrorIs(t, err, businessErr)
	committed, _ := store.Book(book.ID)
	assert.Equal(t, 1, committed.AvailableCopies, "the decrement must be rolled back")
}

func Test_Store_RunInTx_RollsBackWhenContextIsCanceled(t *testing.T) {
	// setup
	ctx, cancel := context.WithCancel(context.Background())
	store := memengine.New()
	book := givenBook(t, store, 1)

	// act
	err := store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		_, err := tx.Inventory().AcquireCopy(ctx, book.ID)
		cancel()
		return err
	})

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	committed, _ := store.Book(book.ID)
	assert.Equal(t, 1, committed.AvailableCopies)
}

func Test_Store_RunInTx_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := memengine.New()
	book := givenBook(t, store, 1)

	assert.Panics(t, func() {
		_ = store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
			_, _ = tx.Inventory().AcquireCopy(ctx, book.ID)
			panic("boom")
		})
	})

	committed, _ := store.Book(book.ID)
	assert.Equal(t, 1, committed.AvailableCopies)
}

func Test_Store_FailOn_InjectsErrorsUntilCleared(t *testing.T) {
	ctx := context.Background()
	store := memengine.New()
	book := givenBook(t, store, 1)
	store.FailOn(memengine.OpAcquireCopy, errors.New("connection reset"))

	acquire := func() error {
		return store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
			_, err := tx.Inventory().AcquireCopy(ctx, book.ID)
			return err
		})
	}

	assert.ErrorIs(t, acquire(), memengine.ErrInjectedFailure)

	store.ClearFailures()
	assert.NoError(t, acquire())
}

func Test_Store_SoftDeleteBook_OnlyWithoutCopiesOnLoan(t *testing.T) {
	ctx := context.Background()
	store := memengine.New()
	book := givenBook(t, store, 2)

	err := store.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		_, err := tx.Inventory().AcquireCopy(ctx, book.ID)
		require.NoError(t, err)

		deleted, err := tx.Inventory().SoftDeleteBook(ctx, book.ID)
		assert.NoError(t, err)
		assert.False(t, deleted)

		_, err = tx.Inventory().ReleaseCopy(ctx, book.ID)
		require.NoError(t, err)

		deleted, err = tx.Inventory().SoftDeleteBook(ctx, book.ID)
		assert.NoError(t, err)
		assert.True(t, deleted)

		_, err = tx.Inventory().AcquireCopy(ctx, book.ID)
		assert.ErrorIs(t, err, lending.ErrNotFound, "a deleted book cannot be lent")

		return nil
	})

	assert.NoError(t, err)
}
