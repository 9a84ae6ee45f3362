package payfee_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memengine"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/payfee"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/returnloan"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
)

func givenReturnedLoan(t *testing.T, store *memengine.Store, daysLate int) (lending.Loan, lending.Member) {
	t.Helper()

	policy := fixtures.PolicyWithDailyFee("0.50")
	book := fixtures.GivenBook(t, store, "Dune", 1)
	member := fixtures.GivenEligibleMember(t, store, 3)
	loan := fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now, policy)
	returnAt := loan.DueDate().Add(time.Duration(daysLate) * 24 * time.Hour)

	returned, err := returnloan.NewCommandHandler(store, lending.FixedClock(returnAt), policy).
		Handle(context.Background(), returnloan.BuildCommand(loan.ID()))
	require.NoError(t, err, "error in arranging test data: return loan")

	return returned, member
}

func Test_PayFee_MarksFeePaidAndClearsTheBalance(t *testing.T) {
	// arrange
	store := memengine.New()
	loan, member := givenReturnedLoan(t, store, 4)
	handler := payfee.NewCommandHandler(store, lending.FixedClock(fixtures.Now.AddDate(0, 1, 0)))

	// act
	paid, err := handler.Handle(context.Background(), payfee.BuildCommand(loan.ID()))

	// assert
	require.NoError(t, err)
	assert.True(t, paid.IsFeePaid())
	fee, _ := paid.LateFee()
	assert.True(t, fee.Equal(decimal.RequireFromString("2.00")))

	settled, _ := store.Member(member.ID)
	assert.True(t, settled.OutstandingFees.IsZero())
}

func Test_PayFee_PayingTwiceIsAnInvalidStateTransition(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.New()
	loan, _ := givenReturnedLoan(t, store, 1)
	handler := payfee.NewCommandHandler(store, lending.FixedClock(fixtures.Now))

	_, err := handler.Handle(ctx, payfee.BuildCommand(loan.ID()))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(ctx, payfee.BuildCommand(loan.ID()))

	// assert
	assert.ErrorIs(t, err, lending.ErrInvalidStateTransition)
}

func Test_PayFee_LoanWithoutFeeCannotBePaid(t *testing.T) {
	// arrange
	store := memengine.New()
	loan, _ := givenReturnedLoan(t, store, 0)
	handler := payfee.NewCommandHandler(store, lending.FixedClock(fixtures.Now))

	// act
	_, err := handler.Handle(context.Background(), payfee.BuildCommand(loan.ID()))

	// assert
	assert.ErrorIs(t, err, lending.ErrInvalidStateTransition)
}

func Test_PayFee_BalanceBelowFeeIsAnIntegrityViolation(t *testing.T) {
	// arrange
	store := memengine.New()
	loan, member := givenReturnedLoan(t, store, 2)
	err := store.RunInTx(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		_, settleErr := tx.Members().SettleOutstandingFee(ctx, member.ID, decimal.RequireFromString("0.75"))
		return settleErr
	})
	require.NoError(t, err)
	handler := payfee.NewCommandHandler(store, lending.FixedClock(fixtures.Now))

	// act
	_, err = handler.Handle(context.Background(), payfee.BuildCommand(loan.ID()))

	// assert
	assert.ErrorIs(t, err, lending.ErrFeeLedgerIntegrity)
	assert.False(t, fixtures.FindLoan(t, store, loan.ID()).IsFeePaid())
}
