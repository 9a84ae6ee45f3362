package marklost

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CommandHandler runs the workflow: FindLoan -> MarkLost -> UpdateLoan -> RemoveCopyFromCirculation -> audit.
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

// Handle ends the loan as lost.
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Loan, error) {
	var lost lending.Loan

	err := h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		now := h.clock.Now()

		loan, err := tx.Loans().FindLoan(ctx, command.LoanID)
		if err != nil {
			return err
		}

		lost, err = loan.MarkLost(now)
		if err != nil {
			return err
		}

		if err = lending.SaveTransition(ctx, tx, loan, lost, lending.AuditActionLost, now); err != nil {
			return err
		}

		removed, err := tx.Inventory().RemoveCopyFromCirculation(ctx, loan.BookID())
		if err != nil {
			return err
		}

		if !removed {
			return fmt.Errorf("mark loan %d lost, book %d: %w", loan.ID(), loan.BookID(), lending.ErrInventoryIntegrity)
		}

		return nil
	})
	if err != nil {
		return lending.Loan{}, err
	}

	return lost, nil
}
