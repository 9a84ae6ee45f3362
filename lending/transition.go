package lending

import (
	"context"
	"fmt"
	"time"
)

// SaveTransition persists a loan state transition and its audit entry through tx.
// The write is guarded by before's state; a concurrent change yields ErrConcurrencyConflict.
func SaveTransition(ctx context.Context, tx Tx, before, after Loan, action AuditAction, at time.Time) error {
	updated, err := tx.Loans().UpdateLoan(ctx, before, after)
	if err != nil {
		return err
	}

	if !updated {
		return fmt.Errorf("%s loan %d: %w", action, before.ID(), ErrConcurrencyConflict)
	}

	return AppendAudit(ctx, tx, action, after, at)
}

// AppendAudit writes one audit entry for loan through tx.
func AppendAudit(ctx context.Context, tx Tx, action AuditAction, loan Loan, at time.Time) error {
	entry, err := NewAuditEntry(action, loan, at)
	if err != nil {
		return err
	}

	return tx.Audit().Append(ctx, entry)
}
