package renewloan

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CommandHandler runs the workflow: FindLoan -> Renew -> UpdateLoan -> audit.
type CommandHandler struct {
	uow   lending.UnitOfWork
	clock lending.Clock
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(uow lending.UnitOfWork, clock lending.Clock) CommandHandler {
	return CommandHandler{
		uow:   uow,
		clock: clock,
	}
}

// Handle renews the loan.
// Rejections: lending.ErrRenewalLimitExceeded, lending.ErrInvalidStateTransition (not Active, or overdue),
// lending.ErrInvalidRenewalDays, *lending.NotFoundError.
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Loan, error) {
	var renewed lending.Loan

	err := h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		now := h.clock.Now()

		loan, err := tx.Loans().FindLoan(ctx, command.LoanID)
		if err != nil {
			return err
		}

		renewed, err = loan.Renew(command.AdditionalDays, now)
		if err != nil {
			return err
		}

		return lending.SaveTransition(ctx, tx, loan, renewed, lending.AuditActionRenewed, now)
	})
	if err != nil {
		return lending.Loan{}, err
	}

	return renewed, nil
}
