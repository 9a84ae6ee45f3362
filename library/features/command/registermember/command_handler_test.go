package registermember_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memengine"
	"github.com/AntonStoeckl/library-lending-go/library/features/command/registermember"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
)

func Test_RegisterMember_StartsWithoutFees(t *testing.T) {
	// arrange
	store := memengine.New()
	expiresAt := fixtures.Now.AddDate(2, 0, 0)

	// act
	member, err := registermember.NewCommandHandler(store).
		Handle(context.Background(), registermember.BuildCommand(true, expiresAt, 5))

	// assert
	require.NoError(t, err)
	assert.NotZero(t, member.ID)
	assert.True(t, member.OutstandingFees.IsZero())

	committed, ok := store.Member(member.ID)
	require.True(t, ok)
	assert.Equal(t, expiresAt, committed.MembershipExpiresAt)
	assert.Equal(t, 5, committed.MaxBooksAllowed)
}

func Test_RegisterMember_NegativeBookLimitIsRejected(t *testing.T) {
	// arrange
	store := memengine.New()

	// act
	_, err := registermember.NewCommandHandler(store).
		Handle(context.Background(), registermember.BuildCommand(true, fixtures.Now, -1))

	// assert
	assert.ErrorIs(t, err, lending.ErrInvalidMaxBooksAllowed)
}
