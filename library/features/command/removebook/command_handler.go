package removebook

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CommandHandler runs the workflow: FindBook -> SoftDeleteBook.
type CommandHandler struct {
	uow lending.UnitOfWork
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(uow lending.UnitOfWork) CommandHandler {
	return CommandHandler{
		uow: uow,
	}
}

// Handle soft-deletes the book and returns its final state.
// Rejections: lending.ErrBookHasCopiesOnLoan, *lending.NotFoundError.
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Book, error) {
	var removed lending.Book

	err := h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		book, err := tx.Inventory().FindBook(ctx, command.BookID)
		if err != nil {
			return err
		}

		deleted, err := tx.Inventory().SoftDeleteBook(ctx, command.BookID)
		if err != nil {
			return err
		}

		if !deleted {
			return lending.ErrBookHasCopiesOnLoan
		}

		book.IsDeleted = true
		removed = book

		return nil
	})
	if err != nil {
		return lending.Book{}, err
	}

	return removed, nil
}
