package marklost_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memengine"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/marklost"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
)

func Test_MarkLost_EndsLoanAndTakesTheCopyOutOfCirculation(t *testing.T) {
	// arrange
	store := memengine.New()
	book := fixtures.GivenBook(t, store, "Dune", 2)
	member := fixtures.GivenEligibleMember(t, store, 3)
	loan := fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now, lending.DefaultPolicy())
	handler := marklost.NewCommandHandler(store, lending.FixedClock(fixtures.Now))

	// act
	lost, err := handler.Handle(context.Background(), marklost.BuildCommand(loan.ID()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, lending.LoanStatusLost, lost.Status())
	_, hasReturnedAt := lost.ReturnedAt()
	assert.False(t, hasReturnedAt)

	committed, _ := store.Book(book.ID)
	assert.Equal(t, 1, committed.TotalCopies)
	assert.Equal(t, 1, committed.AvailableCopies)
	assert.NoError(t, store.CheckInvariants())
}

func Test_MarkLost_TerminalLoanCannotBeMarkedAgain(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.New()
	book := fixtures.GivenBook(t, store, "Dune", 1)
	member := fixtures.GivenEligibleMember(t, store, 3)
	loan := fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now, lending.DefaultPolicy())
	handler := marklost.NewCommandHandler(store, lending.FixedClock(fixtures.Now))

	_, err := handler.Handle(ctx, marklost.BuildCommand(loan.ID()))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(ctx, marklost.BuildCommand(loan.ID()))

	// assert
	assert.ErrorIs(t, err, lending.ErrInvalidStateTransition)
	committed, _ := store.Book(book.ID)
	assert.Equal(t, 0, committed.TotalCopies)
}
