package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/library/orchestrator"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
	"github.com/AntonStoeckl/library-lending-go/testutil/postgreswrapper"
)

const concurrentBorrowers = 8

func givenPostgresOrchestrator(t *testing.T, options ...orchestrator.Option) (*orchestrator.LoanOrchestrator, *postgreswrapper.Wrapper) {
	t.Helper()

	wrapper := postgreswrapper.CreateWrapper(t)
	options = append([]orchestrator.Option{orchestrator.WithClock(&movableClock{now: fixtures.Now})}, options...)

	o, err := orchestrator.New(wrapper.Store(), options...)
	require.NoError(t, err, "error in test setup: create orchestrator")

	return o, wrapper
}

func Test_LoanOrchestrator_Postgres_ConcurrentCreateLoanForTheLastCopy_ExactlyOneWins(t *testing.T) {
	// arrange
	ctx := context.Background()
	o, wrapper := givenPostgresOrchestrator(t)
	book, err := o.AddBook(ctx, "Dune", 1)
	require.NoError(t, err)

	memberIDs := make([]int64, concurrentBorrowers)
	for i := range memberIDs {
		member, registerErr := o.RegisterMember(ctx, true, fixtures.Now.AddDate(1, 0, 0), 3)
		require.NoError(t, registerErr)
		memberIDs[i] = member.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, concurrentBorrowers)

	// act
	for i, memberID := range memberIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = o.CreateLoan(ctx, memberID, book.ID)
		}()
	}
	wg.Wait()

	// assert
	succeeded, unavailable := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, lending.ErrUnavailable):
			unavailable++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, concurrentBorrowers-1, unavailable)

	inventory, err := o.GetBookInventory(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, inventory.AvailableCopies)
	assert.Equal(t, 1, inventory.CopiesOnLoan)
	assert.Equal(t, int64(1), wrapper.QueryInt(t, "SELECT COUNT(*) FROM loans WHERE status = 'active'"))
}

func Test_LoanOrchestrator_Postgres_ConcurrentCreateLoanBySameMember_RespectsBookLimit(t *testing.T) {
	// arrange
	ctx := context.Background()
	o, wrapper := givenPostgresOrchestrator(t)
	member, err := o.RegisterMember(ctx, true, fixtures.Now.AddDate(1, 0, 0), 1)
	require.NoError(t, err)

	bookIDs := make([]int64, concurrentBorrowers)
	for i := range bookIDs {
		book, addErr := o.AddBook(ctx, "Dune", 1)
		require.NoError(t, addErr)
		bookIDs[i] = book.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, concurrentBorrowers)

	// act
	for i, bookID := range bookIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = o.CreateLoan(ctx, member.ID, bookID)
		}()
	}
	wg.Wait()

	// assert
	succeeded, overLimit := 0, 0
	for _, err := range errs {
		var ineligible *lending.IneligibleError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &ineligible) && ineligible.Reason == lending.ReasonBookLimitReached:
			overLimit++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, concurrentBorrowers-1, overLimit)

	active, err := o.GetActiveLoans(ctx, member.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, int64(concurrentBorrowers-1),
		wrapper.QueryInt(t, "SELECT COUNT(*) FROM books WHERE available_copies = total_copies"))
}

func Test_LoanOrchestrator_Postgres_ReturnLoan_StoresTheFeeItReturns(t *testing.T) {
	// arrange
	ctx := context.Background()
	clock := &movableClock{now: fixtures.Now}
	o, wrapper := givenPostgresOrchestrator(t,
		orchestrator.WithClock(clock),
		orchestrator.WithPolicy(fixtures.PolicyWithDailyFee("0.125")),
	)
	book, err := o.AddBook(ctx, "Dune", 1)
	require.NoError(t, err)
	member, err := o.RegisterMember(ctx, true, fixtures.Now.AddDate(1, 0, 0), 1)
	require.NoError(t, err)
	loan, err := o.CreateLoan(ctx, member.ID, book.ID)
	require.NoError(t, err)
	clock.Advance(loan.DueDate().Sub(clock.now) + 3*day)

	// act
	returned, err := o.ReturnLoan(ctx, loan.ID())

	// assert
	require.NoError(t, err)
	fee, hasFee := returned.LateFee()
	require.True(t, hasFee)
	assert.True(t, decimal.RequireFromString("0.38").Equal(fee), "fee %s", fee)

	require.NoError(t, wrapper.Store().RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		stored, findErr := tx.Loans().FindLoan(ctx, loan.ID())
		require.NoError(t, findErr)
		storedFee, _ := stored.LateFee()
		assert.True(t, fee.Equal(storedFee), "stored fee %s", storedFee)

		owner, findErr := tx.Members().FindMember(ctx, member.ID)
		require.NoError(t, findErr)
		assert.True(t, fee.Equal(owner.OutstandingFees), "outstanding fees %s", owner.OutstandingFees)

		return nil
	}))
}
