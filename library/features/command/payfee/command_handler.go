package payfee

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CommandHandler runs the workflow: FindLoan -> SettleFee -> UpdateLoan -> SettleOutstandingFee -> audit.
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

// Handle settles the late fee of the loan.
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Loan, error) {
	var settled lending.Loan

	err := h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		now := h.clock.Now()

		loan, err := tx.Loans().FindLoan(ctx, command.LoanID)
		if err != nil {
			return err
		}

		settled, err = loan.SettleFee(now)
		if err != nil {
			return err
		}

		if err = lending.SaveTransition(ctx, tx, loan, settled, lending.AuditActionFeeSettled, now); err != nil {
			return err
		}

		fee, _ := settled.LateFee()

		paid, err := tx.Members().SettleOutstandingFee(ctx, loan.MemberID(), fee)
		if err != nil {
			return err
		}

		if !paid {
			return fmt.Errorf("pay fee of loan %d, member %d: %w", loan.ID(), loan.MemberID(), lending.ErrFeeLedgerIntegrity)
		}

		return nil
	})
	if err != nil {
		return lending.Loan{}, err
	}

	return settled, nil
}
