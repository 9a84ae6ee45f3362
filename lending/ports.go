package lending

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxFunc is the body of a transaction. Returning an error rolls the transaction back.
type TxFunc func(ctx context.Context, tx Tx) error

// UnitOfWork opens one transaction per call and commits it only when fn returns nil.
// Any error, panic or context cancellation rolls back every write made through tx.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn TxFunc) error
}

// Tx exposes the collaborators bound to one open transaction.
type Tx interface {
	Inventory() InventoryLedger
	Members() MemberRepository
	Loans() LoanRepository
	Audit() AuditJournal
}

// InventoryLedger owns the copy counts of books.
//
// AcquireCopy and ReleaseCopy are single conditional writes: the precondition and the
// mutation are one statement, so concurrent callers can never both observe the last copy.
// The expected "no" outcome is (false, nil); an absent book is reported as a *NotFoundError.
type InventoryLedger interface {
	// AcquireCopy decrements availableCopies iff the book exists, is not deleted and availableCopies > 0.
	AcquireCopy(ctx context.Context, bookID int64) (bool, error)

	// ReleaseCopy increments availableCopies iff the book exists and availableCopies < totalCopies.
	ReleaseCopy(ctx context.Context, bookID int64) (bool, error)

	// RemoveCopyFromCirculation decrements totalCopies iff a copy is on loan (totalCopies > availableCopies).
	RemoveCopyFromCirculation(ctx context.Context, bookID int64) (bool, error)

	// AddCopies raises totalCopies and availableCopies by n on a non-deleted book.
	AddCopies(ctx context.Context, bookID int64, n int) (bool, error)

	// SoftDeleteBook flags the book as deleted iff no copy is on loan.
	SoftDeleteBook(ctx context.Context, bookID int64) (bool, error)

	AddBook(ctx context.Context, book Book) (Book, error)
	FindBook(ctx context.Context, bookID int64) (Book, error)
}

// MemberRepository reads and adjusts members.
type MemberRepository interface {
	// FindMember locks the member row for the rest of the transaction.
	FindMember(ctx context.Context, memberID int64) (Member, error)
	RegisterMember(ctx context.Context, member Member) (Member, error)
	AddOutstandingFee(ctx context.Context, memberID int64, amount decimal.Decimal) error

	// SettleOutstandingFee subtracts amount iff outstandingFees >= amount.
	SettleOutstandingFee(ctx context.Context, memberID int64, amount decimal.Decimal) (bool, error)
}

// LoanRepository stores the append-only loan history.
type LoanRepository interface {
	// InsertLoan persists a freshly opened loan and returns it with its id assigned.
	InsertLoan(ctx context.Context, loan Loan) (Loan, error)
	FindLoan(ctx context.Context, loanID int64) (Loan, error)

	// UpdateLoan writes after iff the stored row still matches before's status, renewalCount and isFeePaid.
	UpdateLoan(ctx context.Context, before, after Loan) (bool, error)
	CountActiveLoans(ctx context.Context, memberID int64) (int, error)
	ActiveLoansByMember(ctx context.Context, memberID int64) ([]Loan, error)

	// OverdueLoans returns Active loans with dueDate < asOf, oldest due date first.
	OverdueLoans(ctx context.Context, asOf time.Time) ([]Loan, error)
}

// AuditAction names the loan mutation an AuditEntry documents.
type AuditAction string

const (
	AuditActionCreated    AuditAction = "created"
	AuditActionRenewed    AuditAction = "renewed"
	AuditActionReturned   AuditAction = "returned"
	AuditActionLost       AuditAction = "lost"
	AuditActionDamaged    AuditAction = "damaged"
	AuditActionFeeSettled AuditAction = "fee_settled"
)

// AuditEntry is one row of the loan journal, written in the same transaction as the mutation.
type AuditEntry struct {
	ID         uuid.UUID
	LoanID     int64
	Action     AuditAction
	OccurredAt time.Time
	Loan       LoanRecord
}

// NewAuditEntry builds an entry with a time-ordered (v7) id.
func NewAuditEntry(action AuditAction, loan Loan, occurredAt time.Time) (AuditEntry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return AuditEntry{}, err
	}

	return AuditEntry{
		ID:         id,
		LoanID:     loan.ID(),
		Action:     action,
		OccurredAt: occurredAt,
		Loan:       loan.Record(),
	}, nil
}

// AuditJournal appends audit entries.
type AuditJournal interface {
	Append(ctx context.Context, entry AuditEntry) error
	EntriesForLoan(ctx context.Context, loanID int64) ([]AuditEntry, error)
}
