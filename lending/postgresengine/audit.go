package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type pgAudit struct{ tx *pgTx }

// Append stores the entry with the loan snapshot as a jsonb payload.
func (a pgAudit) Append(ctx context.Context, entry lending.AuditEntry) error {
	payload, err := jsonAPI.Marshal(entry.Loan)
	if err != nil {
		return err
	}

	builder := dialect.Insert(tableLoanAudit).
		Rows(goqu.Record{
			colID:         entry.ID.String(),
			colLoanID:     entry.LoanID,
			colAction:     string(entry.Action),
			colOccurredAt: entry.OccurredAt.UTC(),
			colPayload:    goqu.L(castJsonb, string(payload)),
		})

	_, err = a.tx.execute(ctx, actionAppendAudit, builder)

	return err
}

// EntriesForLoan returns the loan's journal in the order the entries were written.
func (a pgAudit) EntriesForLoan(ctx context.Context, loanID int64) ([]lending.AuditEntry, error) {
	builder := dialect.From(tableLoanAudit).
		Select(goqu.L(exprAuditIDAsText), colLoanID, colAction, colOccurredAt, goqu.L(exprPayloadAsText)).
		Where(goqu.C(colLoanID).Eq(loanID)).
		Order(goqu.C(colOccurredAt).Asc(), goqu.C(colID).Asc())

	entries := make([]lending.AuditEntry, 0)

	err := a.tx.queryRows(ctx, actionListAudit, builder, func(rows adapters.DBRows) error {
		var (
			entry      lending.AuditEntry
			id         string
			action     string
			occurredAt time.Time
			payload    string
		)

		if err := rows.Scan(&id, &entry.LoanID, &action, &occurredAt, &payload); err != nil {
			return err
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return err
		}

		if err = jsonAPI.UnmarshalFromString(payload, &entry.Loan); err != nil {
			return err
		}

		entry.ID = parsed
		entry.Action = lending.AuditAction(action)
		entry.OccurredAt = occurredAt.UTC()
		entries = append(entries, entry)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}
