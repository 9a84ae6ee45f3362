package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

type pgMembers struct{ tx *pgTx }

// FindMember reads the member with SELECT ... FOR UPDATE so concurrent loan creations for
// the same member serialize on the row and see each other's active loan counts.
func (m pgMembers) FindMember(ctx context.Context, memberID int64) (lending.Member, error) {
	builder := dialect.From(tableMembers).
		Select(
			colID,
			colIsActive,
			colMembershipExpiresAt,
			colMaxBooksAllowed,
			goqu.L(exprOutstandingFeesAsText),
		).
		Where(goqu.C(colID).Eq(memberID)).
		ForUpdate(exp.Wait)

	var (
		member lending.Member
		found  bool
	)

	err := m.tx.queryRows(ctx, actionFindMember, builder, func(rows adapters.DBRows) error {
		var (
			expiresAt time.Time
			fees      string
		)

		if err := rows.Scan(&member.ID, &member.IsActive, &expiresAt, &member.MaxBooksAllowed, &fees); err != nil {
			return err
		}

		outstanding, err := decimal.NewFromString(fees)
		if err != nil {
			return err
		}

		member.MembershipExpiresAt = expiresAt.UTC()
		member.OutstandingFees = outstanding
		found = true

		return nil
	})
	if err != nil {
		return lending.Member{}, err
	}

	if !found {
		return lending.Member{}, lending.NewNotFoundError(lending.EntityMember, memberID)
	}

	return member, nil
}

func (m pgMembers) RegisterMember(ctx context.Context, member lending.Member) (lending.Member, error) {
	if member.MaxBooksAllowed < 0 {
		return lending.Member{}, lending.ErrInvalidMaxBooksAllowed
	}

	if member.OutstandingFees.IsNegative() {
		return lending.Member{}, lending.ErrNegativeAmount
	}

	builder := dialect.Insert(tableMembers).
		Rows(goqu.Record{
			colIsActive:            member.IsActive,
			colMembershipExpiresAt: member.MembershipExpiresAt.UTC(),
			colMaxBooksAllowed:     member.MaxBooksAllowed,
			colOutstandingFees:     goqu.L(castNumeric, member.OutstandingFees.String()),
		}).
		Returning(colID)

	err := m.tx.queryRows(ctx, actionRegisterMember, builder, func(rows adapters.DBRows) error {
		return rows.Scan(&member.ID)
	})
	if err != nil {
		return lending.Member{}, err
	}

	return member, nil
}

func (m pgMembers) AddOutstandingFee(ctx context.Context, memberID int64, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return lending.ErrNegativeAmount
	}

	builder := dialect.Update(tableMembers).
		Set(goqu.Record{
			colOutstandingFees: goqu.L(colOutstandingFees+" + "+castNumeric, amount.String()),
		}).
		Where(goqu.C(colID).Eq(memberID))

	rowsAffected, err := m.tx.execute(ctx, actionAddOutstandingFee, builder)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return lending.NewNotFoundError(lending.EntityMember, memberID)
	}

	return nil
}

// SettleOutstandingFee subtracts amount in one conditional UPDATE that never takes the balance below zero.
func (m pgMembers) SettleOutstandingFee(ctx context.Context, memberID int64, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, lending.ErrNegativeAmount
	}

	builder := dialect.Update(tableMembers).
		Set(goqu.Record{
			colOutstandingFees: goqu.L(colOutstandingFees+" - "+castNumeric, amount.String()),
		}).
		Where(
			goqu.C(colID).Eq(memberID),
			goqu.L(colOutstandingFees+" >= "+castNumeric, amount.String()),
		)

	rowsAffected, err := m.tx.execute(ctx, actionSettleOutstandingFee, builder)
	if err != nil {
		return false, err
	}

	if rowsAffected > 0 {
		return true, nil
	}

	exists, err := m.tx.exists(ctx, actionSettleOutstandingFee, tableMembers, goqu.C(colID).Eq(memberID))
	if err != nil {
		return false, err
	}

	if !exists {
		return false, lending.NewNotFoundError(lending.EntityMember, memberID)
	}

	return false, nil
}
