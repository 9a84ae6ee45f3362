package lending

import (
	"errors"
)

var (
	// ErrNotFound is matched by every error that reports an absent member, book or loan.
	ErrNotFound = errors.New("not found")

	// ErrIneligible is matched by every *IneligibleError.
	ErrIneligible = errors.New("member is not eligible to borrow")

	// ErrUnavailable signals that no copy of the book could be acquired.
	ErrUnavailable = errors.New("no copies available")

	// ErrInvalidStateTransition signals a transition that is illegal from the loan's current state.
	ErrInvalidStateTransition = errors.New("invalid loan state transition")

	// ErrRenewalLimitExceeded signals that the loan has already been renewed maxRenewalsAllowed times.
	ErrRenewalLimitExceeded = errors.New("renewal limit exceeded")

	// ErrInventoryIntegrity signals that releasing a copy found availableCopies already at totalCopies.
	ErrInventoryIntegrity = errors.New("inventory integrity violation")

	// ErrFeeLedgerIntegrity signals that settling a late fee found the member's outstanding fees below it.
	ErrFeeLedgerIntegrity = errors.New("member outstanding fees are below the settled late fee")

	// ErrBookHasCopiesOnLoan signals that a book cannot be removed while copies are lent out.
	ErrBookHasCopiesOnLoan = errors.New("book has copies on loan")

	// ErrConcurrencyConflict signals that a guarded write affected no rows because the row changed underneath.
	ErrConcurrencyConflict = errors.New("concurrency conflict, no rows were affected")

	ErrNilDatabaseConnection  = errors.New("database connection must not be nil")
	ErrInvalidRenewalDays     = errors.New("renewal days must be positive and fit a duration")
	ErrInvalidCopyCount       = errors.New("copy count must not be negative")
	ErrInvalidBookState       = errors.New("available copies must be between 0 and total copies")
	ErrInvalidLoanState       = errors.New("loan record violates its invariants")
	ErrLoanIDAlreadyAssigned  = errors.New("loan id is already assigned")
	ErrInvalidLoanPolicy      = errors.New("invalid loan policy")
	ErrInvalidMaxBooksAllowed = errors.New("max books allowed must not be negative")
	ErrNegativeAmount         = errors.New("amount must not be negative")
)

// Entity names used by NotFoundError.
const (
	EntityBook   = "book"
	EntityMember = "member"
	EntityLoan   = "loan"
)
