package addcopies

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CommandHandler runs the workflow: AddCopies -> FindBook.
type CommandHandler struct {
	uow lending.UnitOfWork
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(uow lending.UnitOfWork) CommandHandler {
	return CommandHandler{
		uow: uow,
	}
}

// Handle adds the copies and returns the updated book.
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Book, error) {
	var updated lending.Book

	err := h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		added, err := tx.Inventory().AddCopies(ctx, command.BookID, command.Copies)
		if err != nil {
			return err
		}

		if !added {
			return lending.NewNotFoundError(lending.EntityBook, command.BookID)
		}

		updated, err = tx.Inventory().FindBook(ctx, command.BookID)

		return err
	})
	if err != nil {
		return lending.Book{}, err
	}

	return updated, nil
}
