package createloan

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CommandHandler runs the workflow: FindMember -> CountActiveLoans -> CheckEligibility ->
// AcquireCopy -> OpenLoan -> InsertLoan -> audit. External wrappers handle all observability concerns.
type CommandHandler struct {
	uow    lending.UnitOfWork
	clock  lending.Clock
	policy lending.Policy
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(uow lending.UnitOfWork, clock lending.Clock, policy lending.Policy) CommandHandler {
	return CommandHandler{
		uow:    uow,
		clock:  clock,
		policy: policy,
	}
}

// Handle opens the loan or reports why it could not.
// Rejections: *lending.IneligibleError, lending.ErrUnavailable, *lending.NotFoundError (book).
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Loan, error) {
	var created lending.Loan

	err := h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		now := h.clock.Now()

		if err := checkEligibility(ctx, tx, command.MemberID, now); err != nil {
			return err
		}

		acquired, err := tx.Inventory().AcquireCopy(ctx, command.BookID)
		if err != nil {
			return err
		}

		if !acquired {
			return lending.ErrUnavailable
		}

		loan, err := lending.OpenLoan(command.MemberID, command.BookID, now, h.policy)
		if err != nil {
			return err
		}

		created, err = tx.Loans().InsertLoan(ctx, loan)
		if err != nil {
			return err
		}

		return lending.AppendAudit(ctx, tx, lending.AuditActionCreated, created, now)
	})
	if err != nil {
		return lending.Loan{}, err
	}

	return created, nil
}

// checkEligibility turns an absent member into the member_not_found ineligibility.
func checkEligibility(ctx context.Context, tx lending.Tx, memberID int64, now time.Time) error {
	member, err := tx.Members().FindMember(ctx, memberID)

	switch {
	case errors.Is(err, lending.ErrNotFound):
		return lending.CheckEligibility(nil, 0, now).Err(memberID)
	case err != nil:
		return err
	}

	activeLoans, err := tx.Loans().CountActiveLoans(ctx, memberID)
	if err != nil {
		return err
	}

	return lending.CheckEligibility(&member, activeLoans, now).Err(memberID)
}
