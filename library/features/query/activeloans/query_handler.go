package activeloans

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// QueryHandler reads the active loans of a member.
type QueryHandler struct {
	uow lending.UnitOfWork
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(uow lending.UnitOfWork) QueryHandler {
	return QueryHandler{
		uow: uow,
	}
}

// Handle returns the member's active loans, never nil.
func (h QueryHandler) Handle(ctx context.Context, query Query) ([]lending.Loan, error) {
	loans := make([]lending.Loan, 0)

	err := h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		found, err := tx.Loans().ActiveLoansByMember(ctx, query.MemberID)
		if err != nil {
			return err
		}

		loans = append(loans, found...)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return loans, nil
}
