package lending

import (
	"errors"
	"fmt"
)

// IneligibilityReason names the first borrowing rule a member failed.
type IneligibilityReason string

const (
	ReasonNone              IneligibilityReason = ""
	ReasonMemberNotFound    IneligibilityReason = "member_not_found"
	ReasonMemberInactive    IneligibilityReason = "member_inactive"
	ReasonMembershipExpired IneligibilityReason = "membership_expired"
	ReasonBookLimitReached  IneligibilityReason = "book_limit_reached"
	ReasonOutstandingFees   IneligibilityReason = "outstanding_fees"
)

// Message returns the user-facing text for the reason.
func (r IneligibilityReason) Message() string {
	switch r {
	case ReasonMemberNotFound:
		return "the member does not exist"
	case ReasonMemberInactive:
		return "the member account is not active"
	case ReasonMembershipExpired:
		return "the membership has expired"
	case ReasonBookLimitReached:
		return "the member has reached the maximum number of borrowed books"
	case ReasonOutstandingFees:
		return "the member has outstanding fees"
	default:
		return ""
	}
}

// NotFoundError reports an absent (or soft-deleted) entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold for every NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError is a shorthand used by the persistence engines.
func NewNotFoundError(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// IneligibleError reports why a member may not borrow.
type IneligibleError struct {
	MemberID int64
	Reason   IneligibilityReason
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("member %d is not eligible to borrow: %s", e.MemberID, e.Reason)
}

// Is matches ErrIneligible, and ErrNotFound when the member is absent.
func (e *IneligibleError) Is(target error) bool {
	if target == ErrIneligible {
		return true
	}

	return target == ErrNotFound && e.Reason == ReasonMemberNotFound
}

// Stable error codes exposed to callers.
const (
	CodeNotFound               = "not_found"
	CodeUnavailable            = "unavailable"
	CodeInvalidStateTransition = "invalid_state_transition"
	CodeRenewalLimitExceeded   = "renewal_limit_exceeded"
	CodeBookHasCopiesOnLoan    = "book_has_copies_on_loan"
	CodeConcurrencyConflict    = "concurrency_conflict"
	CodeInvalidArgument        = "invalid_argument"
	CodeInternal               = "internal_error"
)

// ErrorCode maps err to a stable code. Ineligibility maps to its sub-reason.
// Errors outside the taxonomy (storage failures, integrity violations) map to CodeInternal.
func ErrorCode(err error) string {
	var ineligible *IneligibleError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &ineligible):
		return string(ineligible.Reason)
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnavailable):
		return CodeUnavailable
	case errors.Is(err, ErrRenewalLimitExceeded):
		return CodeRenewalLimitExceeded
	case errors.Is(err, ErrInvalidStateTransition):
		return CodeInvalidStateTransition
	case errors.Is(err, ErrBookHasCopiesOnLoan):
		return CodeBookHasCopiesOnLoan
	case errors.Is(err, ErrConcurrencyConflict):
		return CodeConcurrencyConflict
	case errors.Is(err, ErrInvalidRenewalDays),
		errors.Is(err, ErrInvalidCopyCount),
		errors.Is(err, ErrInvalidMaxBooksAllowed),
		errors.Is(err, ErrNegativeAmount):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}

// IsRejection reports whether err is an expected, caller-recoverable outcome
// rather than a fatal failure.
func IsRejection(err error) bool {
	code := ErrorCode(err)

	return code != "" && code != CodeInternal
}
