package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

type pgLoans struct{ tx *pgTx }

func loanColumns() []any {
	return []any{
		colID,
		colMemberID,
		colBookID,
		colBorrowedAt,
		colDueDate,
		colReturnedAt,
		colStatus,
		colRenewalCount,
		colMaxRenewalsAllowed,
		goqu.L(exprLateFeeAsText),
		colIsFeePaid,
		colNotes,
		colUpdatedAt,
	}
}

func (l pgLoans) InsertLoan(ctx context.Context, loan lending.Loan) (lending.Loan, error) {
	r := loan.Record()

	builder := dialect.Insert(tableLoans).
		Rows(goqu.Record{
			colMemberID:           r.MemberID,
			colBookID:             r.BookID,
			colBorrowedAt:         r.BorrowedAt.UTC(),
			colDueDate:            r.DueDate.UTC(),
			colReturnedAt:         nullableTime(r.ReturnedAt),
			colStatus:             string(r.Status),
			colRenewalCount:       r.RenewalCount,
			colMaxRenewalsAllowed: r.MaxRenewalsAllowed,
			colLateFee:            nullableNumeric(r.LateFee),
			colIsFeePaid:          r.IsFeePaid,
			colNotes:              r.Notes,
			colUpdatedAt:          r.UpdatedAt.UTC(),
		}).
		Returning(colID)

	var id int64

	err := l.tx.queryRows(ctx, actionInsertLoan, builder, func(rows adapters.DBRows) error {
		return rows.Scan(&id)
	})
	if err != nil {
		return lending.Loan{}, err
	}

	return loan.WithID(id)
}

func (l pgLoans) FindLoan(ctx context.Context, loanID int64) (lending.Loan, error) {
	builder := dialect.From(tableLoans).
		Select(loanColumns()...).
		Where(goqu.C(colID).Eq(loanID))

	loans, err := l.collect(ctx, actionFindLoan, builder)
	if err != nil {
		return lending.Loan{}, err
	}

	if len(loans) == 0 {
		return lending.Loan{}, lending.NewNotFoundError(lending.EntityLoan, loanID)
	}

	return loans[0], nil
}

// UpdateLoan writes every mutable column of after, guarded by before's status, renewal_count and is_fee_paid.
func (l pgLoans) UpdateLoan(ctx context.Context, before, after lending.Loan) (bool, error) {
	r := after.Record()

	builder := dialect.Update(tableLoans).
		Set(goqu.Record{
			colDueDate:      r.DueDate.UTC(),
			colReturnedAt:   nullableTime(r.ReturnedAt),
			colStatus:       string(r.Status),
			colRenewalCount: r.RenewalCount,
			colLateFee:      nullableNumeric(r.LateFee),
			colIsFeePaid:    r.IsFeePaid,
			colNotes:        r.Notes,
			colUpdatedAt:    r.UpdatedAt.UTC(),
		}).
		Where(
			goqu.C(colID).Eq(before.ID()),
			goqu.C(colStatus).Eq(string(before.Status())),
			goqu.C(colRenewalCount).Eq(before.RenewalCount()),
			goqu.C(colIsFeePaid).Eq(before.IsFeePaid()),
		)

	rowsAffected, err := l.tx.execute(ctx, actionUpdateLoan, builder)
	if err != nil {
		return false, err
	}

	if rowsAffected > 0 {
		return true, nil
	}

	exists, err := l.tx.exists(ctx, actionUpdateLoan, tableLoans, goqu.C(colID).Eq(before.ID()))
	if err != nil {
		return false, err
	}

	if !exists {
		return false, lending.NewNotFoundError(lending.EntityLoan, before.ID())
	}

	return false, nil
}

func (l pgLoans) CountActiveLoans(ctx context.Context, memberID int64) (int, error) {
	builder := dialect.From(tableLoans).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C(colMemberID).Eq(memberID),
			goqu.C(colStatus).Eq(string(lending.LoanStatusActive)),
		)

	var count int64

	err := l.tx.queryRows(ctx, actionCountActiveLoans, builder, func(rows adapters.DBRows) error {
		return rows.Scan(&count)
	})
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

func (l pgLoans) ActiveLoansByMember(ctx context.Context, memberID int64) ([]lending.Loan, error) {
	builder := dialect.From(tableLoans).
		Select(loanColumns()...).
		Where(
			goqu.C(colMemberID).Eq(memberID),
			goqu.C(colStatus).Eq(string(lending.LoanStatusActive)),
		).
		Order(goqu.C(colID).Asc())

	return l.collect(ctx, actionListLoans, builder)
}

// OverdueLoans lists Active loans with due_date < asOf, oldest due date first.
func (l pgLoans) OverdueLoans(ctx context.Context, asOf time.Time) ([]lending.Loan, error) {
	builder := dialect.From(tableLoans).
		Select(loanColumns()...).
		Where(
			goqu.C(colStatus).Eq(string(lending.LoanStatusActive)),
			goqu.C(colDueDate).Lt(asOf.UTC()),
		).
		Order(goqu.C(colDueDate).Asc(), goqu.C(colID).Asc())

	return l.collect(ctx, actionListLoans, builder)
}

func (l pgLoans) collect(ctx context.Context, action string, builder sqlBuilder) ([]lending.Loan, error) {
	records := make([]lending.LoanRecord, 0)

	err := l.tx.queryRows(ctx, action, builder, func(rows adapters.DBRows) error {
		record, err := scanLoanRecord(rows)
		if err != nil {
			return err
		}
		records = append(records, record)

		return nil
	})
	if err != nil {
		return nil, err
	}

	loans := make([]lending.Loan, 0, len(records))

	for _, record := range records {
		loan, err := lending.ReconstituteLoan(record)
		if err != nil {
			l.tx.store.logError(ctx, logMsgScanRowFailed, err)
			l.tx.store.recordErrorMetrics(ctx, action, errorTypeDecode)

			return nil, err
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

func scanLoanRecord(rows adapters.DBRows) (lending.LoanRecord, error) {
	var (
		r          lending.LoanRecord
		status     string
		returnedAt *time.Time
		lateFee    *string
	)

	if err := rows.Scan(
		&r.ID,
		&r.MemberID,
		&r.BookID,
		&r.BorrowedAt,
		&r.DueDate,
		&returnedAt,
		&status,
		&r.RenewalCount,
		&r.MaxRenewalsAllowed,
		&lateFee,
		&r.IsFeePaid,
		&r.Notes,
		&r.UpdatedAt,
	); err != nil {
		return lending.LoanRecord{}, err
	}

	r.Status = lending.LoanStatus(status)
	r.BorrowedAt = r.BorrowedAt.UTC()
	r.DueDate = r.DueDate.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()

	if returnedAt != nil {
		utc := returnedAt.UTC()
		r.ReturnedAt = &utc
	}

	if lateFee != nil {
		fee, err := decimal.NewFromString(*lateFee)
		if err != nil {
			return lending.LoanRecord{}, err
		}
		r.LateFee = &fee
	}

	return r, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return t.UTC()
}

func nullableNumeric(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}

	return goqu.L(castNumeric, d.String())
}
