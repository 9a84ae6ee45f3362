package feepreview

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// QueryHandler previews late fees with the policy's daily rate.
type QueryHandler struct {
	uow    lending.UnitOfWork
	clock  lending.Clock
	policy lending.Policy
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(uow lending.UnitOfWork, clock lending.Clock, policy lending.Policy) QueryHandler {
	return QueryHandler{
		uow:    uow,
		clock:  clock,
		policy: policy,
	}
}

// Handle computes the preview. A terminal loan is rejected with lending.ErrInvalidStateTransition.
func (h QueryHandler) Handle(ctx context.Context, query Query) (FeePreview, error) {
	var loan lending.Loan

	err := h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		var err error
		loan, err = tx.Loans().FindLoan(ctx, query.LoanID)

		return err
	})
	if err != nil {
		return FeePreview{}, err
	}

	if !loan.IsActive() {
		return FeePreview{}, fmt.Errorf("preview fee of %s loan %d: %w", loan.Status(), loan.ID(), lending.ErrInvalidStateTransition)
	}

	asOf := h.clock.Now()

	return FeePreview{
		LoanID:      loan.ID(),
		DueDate:     loan.DueDate(),
		AsOf:        asOf,
		DaysOverdue: lending.DaysOverdue(loan.DueDate(), asOf),
		Fee:         lending.CalculateLateFee(loan.DueDate(), asOf, h.policy.DailyLateFee),
		IsOverdue:   loan.IsOverdue(asOf),
	}, nil
}
