package registermember

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CommandHandler registers a member in its own transaction.
type CommandHandler struct {
	uow lending.UnitOfWork
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(uow lending.UnitOfWork) CommandHandler {
	return CommandHandler{
		uow: uow,
	}
}

// Handle stores the member and returns it with its id.
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Member, error) {
	member, err := lending.NewMember(command.IsActive, command.MembershipExpiresAt, command.MaxBooksAllowed)
	if err != nil {
		return lending.Member{}, err
	}

	var registered lending.Member

	err = h.uow.RunInTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		var registerErr error
		registered, registerErr = tx.Members().RegisterMember(ctx, member)

		return registerErr
	})
	if err != nil {
		return lending.Member{}, err
	}

	return registered, nil
}
