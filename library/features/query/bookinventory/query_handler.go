package bookinventory

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// QueryHandler reads the inventory of a book.
type QueryHandler struct {
	uow lending.UnitOfWork
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(uow lending.UnitOfWork) QueryHandler {
	return QueryHandler{
		uow: uow,
	}
}

// Handle returns the copy counts. Deleted books are reported as not found.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Inventory, error) {
	var book lending.Book

	err := h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		var err error
		book, err = tx.Inventory().FindBook(ctx, query.BookID)

		return err
	})
	if err != nil {
		return Inventory{}, err
	}

	return Inventory{
		BookID:          book.ID,
		Title:           book.Title,
		TotalCopies:     book.TotalCopies,
		AvailableCopies: book.AvailableCopies,
		CopiesOnLoan:    book.CopiesOnLoan(),
		UpdatedAt:       book.UpdatedAt,
	}, nil
}
