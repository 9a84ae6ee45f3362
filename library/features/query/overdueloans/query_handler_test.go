package overdueloans_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memengine"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/marklost"
	"github.com/AntonStoeckl/library-lending-go/library/features/query/overdueloans"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
)

func Test_QueryHandler_Handle_ReturnsActiveLoansPastDueOldestFirst(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memengine.New()
	policy := lending.DefaultPolicy()
	book := fixtures.GivenBook(t, store, "Dune", 5)
	member := fixtures.GivenEligibleMember(t, store, 5)

	recent := fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now.AddDate(0, 0, -20), policy)
	oldest := fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now.AddDate(0, 0, -40), policy)
	fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now, policy)
	lost := fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now.AddDate(0, 0, -60), policy)

	_, err := marklost.NewCommandHandler(store, lending.FixedClock(fixtures.Now)).
		Handle(ctx, marklost.BuildCommand(lost.ID()))
	require.NoError(t, err, "error in arranging test data: mark lost")

	// act
	loans, err := overdueloans.NewQueryHandler(store).Handle(ctx, overdueloans.BuildQuery(fixtures.Now))

	// assert
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, oldest.ID(), loans[0].ID())
	assert.Equal(t, recent.ID(), loans[1].ID())
}

func Test_QueryHandler_Handle_LoanDueExactlyAsOfIsNotOverdue(t *testing.T) {
	// arrange
	store := memengine.New()
	policy := lending.DefaultPolicy()
	book := fixtures.GivenBook(t, store, "Dune", 1)
	member := fixtures.GivenEligibleMember(t, store, 1)
	loan := fixtures.GivenActiveLoan(t, store, member.ID, book.ID, fixtures.Now, policy)

	// act
	loans, err := overdueloans.NewQueryHandler(store).Handle(context.Background(), overdueloans.BuildQuery(loan.DueDate()))

	// assert
	require.NoError(t, err)
	assert.Empty(t, loans)
}
