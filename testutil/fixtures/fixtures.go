package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Now is the fixed instant the fixtures and feature tests use as "today".
var Now = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

// GivenBook adds a book with copies total and available copies.
func GivenBook(t *testing.T, uow lending.UnitOfWork, title string, copies int) lending.Book {
	t.Helper()

	var added lending.Book

	err := uow.RunInTx(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		book, err := lending.NewBook(title, copies, Now)
		if err != nil {
			return err
		}

		added, err = tx.Inventory().AddBook(ctx, book)

		return err
	})
	require.NoError(t, err, "error in arranging test data: add book")

	return added
}

// GivenEligibleMember registers an active member whose membership runs for another year.
func GivenEligibleMember(t *testing.T, uow lending.UnitOfWork, maxBooksAllowed int) lending.Member {
	t.Helper()

	member, err := lending.NewMember(true, Now.AddDate(1, 0, 0), maxBooksAllowed)
	require.NoError(t, err, "error in arranging test data: new member")

	return GivenMember(t, uow, member)
}

// GivenMember registers member as given, outstanding fees included.
func GivenMember(t *testing.T, uow lending.UnitOfWork, member lending.Member) lending.Member {
	t.Helper()

	var registered lending.Member

	err := uow.RunInTx(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		var err error
		registered, err = tx.Members().RegisterMember(ctx, member)

		return err
	})
	require.NoError(t, err, "error in arranging test data: register member")

	return registered
}

// GivenOutstandingFee adds amount to the member's balance.
func GivenOutstandingFee(t *testing.T, uow lending.UnitOfWork, memberID int64, amount string) {
	t.Helper()

	err := uow.RunInTx(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		return tx.Members().AddOutstandingFee(ctx, memberID, decimal.RequireFromString(amount))
	})
	require.NoError(t, err, "error in arranging test data: add outstanding fee")
}

// GivenActiveLoan lends one copy of bookID to memberID as of borrowedAt, bypassing the eligibility rules.
func GivenActiveLoan(
	t *testing.T,
	uow lending.UnitOfWork,
	memberID, bookID int64,
	borrowedAt time.Time,
	policy lending.Policy,
) lending.Loan {
	t.Helper()

	var inserted lending.Loan

	err := uow.RunInTx(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		acquired, err := tx.Inventory().AcquireCopy(ctx, bookID)
		if err != nil {
			return err
		}

		if !acquired {
			return lending.ErrUnavailable
		}

		loan, err := lending.OpenLoan(memberID, bookID, borrowedAt, policy)
		if err != nil {
			return err
		}

		inserted, err = tx.Loans().InsertLoan(ctx, loan)
		if err != nil {
			return err
		}

		return lending.AppendAudit(ctx, tx, lending.AuditActionCreated, inserted, borrowedAt)
	})
	require.NoError(t, err, "error in arranging test data: open loan")

	return inserted
}

// FindLoan reads the committed loan.
func FindLoan(t *testing.T, uow lending.UnitOfWork, loanID int64) lending.Loan {
	t.Helper()

	var loan lending.Loan

	err := uow.RunInTx(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		var err error
		loan, err = tx.Loans().FindLoan(ctx, loanID)

		return err
	})
	require.NoError(t, err, "error in asserting: find loan")

	return loan
}

// PolicyWithDailyFee returns the default policy with a different daily late fee.
func PolicyWithDailyFee(fee string) lending.Policy {
	policy := lending.DefaultPolicy()
	policy.DailyLateFee = decimal.RequireFromString(fee)

	return policy
}
