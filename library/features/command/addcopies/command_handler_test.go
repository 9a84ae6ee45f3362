package addcopies_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memengine"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/addcopies"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
)

func Test_AddCopies_RaisesTotalAndAvailable(t *testing.T) {
	// arrange
	store := memengine.New()
	book := fixtures.GivenBook(t, store, "Dune", 1)
	member := fixtures.GivenEligibleMember(t, store, 3)
	fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now, lending.DefaultPolicy())

	// act
	updated, err := addcopies.NewCommandHandler(store).Handle(context.Background(), addcopies.BuildCommand(book.ID, 2))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, updated.TotalCopies)
	assert.Equal(t, 2, updated.AvailableCopies)
	assert.Equal(t, 1, updated.CopiesOnLoan())
}

func Test_AddCopies_RejectsNonPositiveCountAndUnknownBook(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.New()
	book := fixtures.GivenBook(t, store, "Dune", 1)
	handler := addcopies.NewCommandHandler(store)

	// act
	_, zeroErr := handler.Handle(ctx, addcopies.BuildCommand(book.ID, 0))
	_, missingErr := handler.Handle(ctx, addcopies.BuildCommand(99, 1))

	// assert
	assert.ErrorIs(t, zeroErr, lending.ErrInvalidCopyCount)
	assert.ErrorIs(t, missingErr, lending.ErrNotFound)
}
