package returnloan

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CommandHandler runs the workflow: FindLoan -> CalculateLateFee -> Return -> UpdateLoan ->
// ReleaseCopy -> AddOutstandingFee -> audit.
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

// Handle returns the loan and reports the closed loan with its late fee.
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Loan, error) {
	var returned lending.Loan

	err := h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		now := h.clock.Now()

		loan, err := tx.Loans().FindLoan(ctx, command.LoanID)
		if err != nil {
			return err
		}

		fee := lending.CalculateLateFee(loan.DueDate(), now, h.policy.DailyLateFee)

		returned, err = loan.Return(fee, now)
		if err != nil {
			return err
		}

		if err = lending.SaveTransition(ctx, tx, loan, returned, lending.AuditActionReturned, now); err != nil {
			return err
		}

		released, err := tx.Inventory().ReleaseCopy(ctx, loan.BookID())
		if err != nil {
			return err
		}

		if !released {
			return fmt.Errorf("return loan %d, book %d: %w", loan.ID(), loan.BookID(), lending.ErrInventoryIntegrity)
		}

		if fee.IsPositive() {
			return tx.Members().AddOutstandingFee(ctx, loan.MemberID(), fee)
		}

		return nil
	})
	if err != nil {
		return lending.Loan{}, err
	}

	return returned, nil
}
