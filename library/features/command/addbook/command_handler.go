package addbook

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CommandHandler adds a book in its own transaction.
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

// Handle stores the book and returns it with its id. A negative copy count is rejected with lending.ErrInvalidCopyCount.
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Book, error) {
	book, err := lending.NewBook(command.Title, command.TotalCopies, h.clock.Now())
	if err != nil {
		return lending.Book{}, err
	}

	var added lending.Book

	err = h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		var addErr error
		added, addErr = tx.Inventory().AddBook(ctx, book)

		return addErr
	})
	if err != nil {
		return lending.Book{}, err
	}

	return added, nil
}
