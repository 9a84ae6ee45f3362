package removebook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memengine"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/removebook"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
)

func Test_RemoveBook_SoftDeletesBookWithoutLoans(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.New()
	book := fixtures.GivenBook(t, store, "Dune", 2)
	handler := removebook.NewCommandHandler(store)

	// act
	removed, err := handler.Handle(ctx, removebook.BuildCommand(book.ID))

	// assert
	require.NoError(t, err)
	assert.True(t, removed.IsDeleted)

	_, err = handler.Handle(ctx, removebook.BuildCommand(book.ID))
	assert.ErrorIs(t, err, lending.ErrNotFound, "a deleted book can not be removed again")
}

func Test_RemoveBook_RefusesWhileCopiesAreOnLoan(t *testing.T) {
	// arrange
	store := memengine.New()
	book := fixtures.GivenBook(t, store, "Dune", 2)
	member := fixtures.GivenEligibleMember(t, store, 3)
	fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now, lending.DefaultPolicy())

	// act
	_, err := removebook.NewCommandHandler(store).Handle(context.Background(), removebook.BuildCommand(book.ID))

	// assert
	assert.ErrorIs(t, err, lending.ErrBookHasCopiesOnLoan)
	committed, _ := store.Book(book.ID)
	assert.False(t, committed.IsDeleted)
}
