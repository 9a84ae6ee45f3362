package bookinventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memengine"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/removebook"
	"github.com/AntonStoeckl/library-lending-go/library/features/query/bookinventory"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
)

func Test_QueryHandler_Handle_ReportsCopiesOnLoan(t *testing.T) {
	// arrange
	store := memengine.New()
	book := fixtures.GivenBook(t, store, "Dune", 3)
	member := fixtures.GivenEligibleMember(t, store, 3)
	fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now, lending.DefaultPolicy())
	fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now, lending.DefaultPolicy())

	// act
	inventory, err := bookinventory.NewQueryHandler(store).Handle(context.Background(), bookinventory.BuildQuery(book.ID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Dune", inventory.Title)
	assert.Equal(t, 3, inventory.TotalCopies)
	assert.Equal(t, 1, inventory.AvailableCopies)
	assert.Equal(t, 2, inventory.CopiesOnLoan)
}

func Test_QueryHandler_Handle_DeletedBookIsNotFound(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.New()
	book := fixtures.GivenBook(t, store, "Dune", 1)

	_, err := removebook.NewCommandHandler(store).Handle(ctx, removebook.BuildCommand(book.ID))
	require.NoError(t, err, "error in arranging test data: remove book")

	// act
	_, err = bookinventory.NewQueryHandler(store).Handle(ctx, bookinventory.BuildQuery(book.ID))

	// assert
	assert.ErrorIs(t, err, lending.ErrNotFound)
}
