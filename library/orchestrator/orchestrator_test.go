package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memengine"
	"github.com/AntonStoeckl/library-lending-go/library/orchestrator"
	"github.com/AntonStoeckl/library-lending-go/library/shared/shell"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
	"github.com/AntonStoeckl/library-lending-go/testutil/spies"
)

const day = 24 * time.Hour

type movableClock struct{ now time.Time }

func (c *movableClock) Now() time.Time          { return c.now }
func (c *movableClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

//nolint:funlen
func Test_LoanOrchestrator_FullLifecycleWithLateFee(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.New()
	clock := &movableClock{now: fixtures.Now}
	o, err := orchestrator.New(store, orchestrator.WithClock(clock))
	require.NoError(t, err)

	book, err := o.AddBook(ctx, "Dune", 1)
	require.NoError(t, err)
	member, err := o.RegisterMember(ctx, true, fixtures.Now.AddDate(1, 0, 0), 2)
	require.NoError(t, err)
	otherMember, err := o.RegisterMember(ctx, true, fixtures.Now.AddDate(1, 0, 0), 2)
	require.NoError(t, err)

	// act / assert: lend the only copy
	loan, err := o.CreateLoan(ctx, member.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, fixtures.Now.Add(14*day), loan.DueDate())

	_, err = o.CreateLoan(ctx, otherMember.ID, book.ID)
	assert.ErrorIs(t, err, lending.ErrUnavailable)

	// renew once while not overdue
	loan, err = o.RenewLoanByPolicy(ctx, loan.ID())
	require.NoError(t, err)
	assert.Equal(t, fixtures.Now.Add(28*day), loan.DueDate())

	// four days past the due date
	clock.Advance(32 * day)

	_, err = o.RenewLoan(ctx, loan.ID(), 7)
	assert.ErrorIs(t, err, lending.ErrInvalidStateTransition, "an overdue loan can not be renewed")

	overdue, err := o.GetOverdueLoansNow(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	preview, err := o.PreviewLateFee(ctx, loan.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(4), preview.DaysOverdue)
	assert.True(t, decimal.RequireFromString("1.00").Equal(preview.Fee))

	returned, err := o.ReturnLoan(ctx, loan.ID())
	require.NoError(t, err)
	fee, hasFee := returned.LateFee()
	require.True(t, hasFee)
	assert.True(t, preview.Fee.Equal(fee), "the preview matches the charged fee")

	inventory, err := o.GetBookInventory(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, inventory.AvailableCopies)

	// the unpaid fee blocks borrowing until it is paid
	_, err = o.CreateLoan(ctx, member.ID, book.ID)
	assert.ErrorIs(t, err, lending.ErrIneligible)
	assert.Equal(t, string(lending.ReasonOutstandingFees), lending.ErrorCode(err))

	paid, err := o.PayFee(ctx, loan.ID())
	require.NoError(t, err)
	assert.True(t, paid.IsFeePaid())

	_, err = o.CreateLoan(ctx, member.ID, book.ID)
	require.NoError(t, err)

	active, err := o.GetActiveLoans(ctx, member.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.NoError(t, store.CheckInvariants())
}

func Test_LoanOrchestrator_LostAndDamagedShrinkInventory(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.New()
	o, err := orchestrator.New(store, orchestrator.WithClock(lending.FixedClock(fixtures.Now)))
	require.NoError(t, err)

	book, err := o.AddBook(ctx, "Dune", 2)
	require.NoError(t, err)
	_, err = o.AddCopies(ctx, book.ID, 1)
	require.NoError(t, err)
	member, err := o.RegisterMember(ctx, true, fixtures.Now.AddDate(1, 0, 0), 3)
	require.NoError(t, err)

	lostLoan, err := o.CreateLoan(ctx, member.ID, book.ID)
	require.NoError(t, err)
	damagedLoan, err := o.CreateLoan(ctx, member.ID, book.ID)
	require.NoError(t, err)

	// act
	_, lostErr := o.MarkLost(ctx, lostLoan.ID())
	damaged, damagedErr := o.MarkDamaged(ctx, damagedLoan.ID(), "water damage")

	// assert
	require.NoError(t, lostErr)
	require.NoError(t, damagedErr)
	assert.Equal(t, "water damage", damaged.Notes())

	inventory, err := o.GetBookInventory(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, inventory.TotalCopies)
	assert.Equal(t, 1, inventory.AvailableCopies)
	assert.Zero(t, inventory.CopiesOnLoan)

	removed, err := o.RemoveBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, removed.IsDeleted)
}

func Test_LoanOrchestrator_InstrumentsEveryOperation(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.New()
	metrics := spies.NewMetricsCollectorSpy()
	tracing := spies.NewTracingCollectorSpy()
	logger := spies.NewContextualLoggerSpy()

	o, err := orchestrator.New(
		store,
		orchestrator.WithClock(lending.FixedClock(fixtures.Now)),
		orchestrator.WithMetrics(metrics),
		orchestrator.WithTracing(tracing),
		orchestrator.WithContextualLogger(logger),
	)
	require.NoError(t, err)

	book := fixtures.GivenBook(t, store, "Dune", 1)
	member := fixtures.GivenEligibleMember(t, store, 1)

	// act
	_, createErr := o.CreateLoan(ctx, member.ID, book.ID)
	_, rejectedErr := o.CreateLoan(ctx, member.ID, book.ID)
	_, queryErr := o.GetActiveLoans(ctx, member.ID)

	// assert
	require.NoError(t, createErr)
	require.Error(t, rejectedErr)
	require.NoError(t, queryErr)

	assert.Equal(t, 1, metrics.CountCounter(shell.CommandHandlerCallsMetric,
		map[string]string{shell.LogAttrCommandType: "CreateLoan", shell.LogAttrStatus: shell.StatusSuccess}))
	assert.Equal(t, 1, metrics.CountCounter(shell.CommandHandlerRejectionsMetric,
		map[string]string{shell.LogAttrCommandType: "CreateLoan", shell.LogAttrErrorCode: lending.ErrorCode(rejectedErr)}))
	assert.Equal(t, 1, metrics.CountCounter(shell.QueryHandlerCallsMetric,
		map[string]string{shell.LogAttrQueryType: "GetActiveLoans", shell.LogAttrStatus: shell.StatusSuccess}))

	assert.Len(t, tracing.SpansNamed(shell.SpanNameCommandHandle), 2)
	assert.Len(t, tracing.SpansNamed(shell.SpanNameQueryHandle), 1)

	assert.True(t, logger.HasMessage("info", shell.LogMsgCommandCompleted))
	assert.True(t, logger.HasMessage("info", shell.LogMsgCommandRejected))
}

func Test_New_RejectsInvalidSetup(t *testing.T) {
	invalidPolicy := lending.DefaultPolicy()
	invalidPolicy.LoanPeriod = 0
	overlongRenewal := lending.DefaultPolicy()
	overlongRenewal.RenewalDays = lending.MaxRenewalDays + 1

	_, nilUOW := orchestrator.New(nil)
	_, nilClock := orchestrator.New(memengine.New(), orchestrator.WithClock(nil))
	_, badPolicy := orchestrator.New(memengine.New(), orchestrator.WithPolicy(invalidPolicy))
	_, badRenewal := orchestrator.New(memengine.New(), orchestrator.WithPolicy(overlongRenewal))

	assert.ErrorIs(t, nilUOW, orchestrator.ErrNilUnitOfWork)
	assert.ErrorIs(t, nilClock, orchestrator.ErrNilClock)
	assert.ErrorIs(t, badPolicy, lending.ErrInvalidLoanPolicy)
	assert.ErrorIs(t, badRenewal, lending.ErrInvalidLoanPolicy)
}
