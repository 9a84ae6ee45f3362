package lending

import (
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

// LoanStatus is the stored state of a loan. Overdue is derived, see Loan.IsOverdue.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
	LoanStatusLost     LoanStatus = "lost"
	LoanStatusDamaged  LoanStatus = "damaged"
)

// IsValid reports whether s is one of the known statuses.
func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusActive, LoanStatusReturned, LoanStatusLost, LoanStatusDamaged:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further lifecycle transition is possible (fee settlement aside).
func (s LoanStatus) IsTerminal() bool {
	return s.IsValid() && s != LoanStatusActive
}

// Loan is the loan aggregate. Its fields are only reachable through accessors;
// every transition validates the current state and returns a new Loan.
type Loan struct {
	id                 int64
	memberID           int64
	bookID             int64
	borrowedAt         time.Time
	dueDate            time.Time
	returnedAt         *time.Time
	status             LoanStatus
	renewalCount       int
	maxRenewalsAllowed int
	lateFee            *decimal.Decimal
	isFeePaid          bool
	notes              string
	updatedAt          time.Time
}

// LoanRecord is the flat persistence and wire shape of a Loan.
type LoanRecord struct {
	ID                 int64            `json:"id"`
	MemberID           int64            `json:"memberId"`
	BookID             int64            `json:"bookId"`
	BorrowedAt         time.Time        `json:"borrowedAt"`
	DueDate            time.Time        `json:"dueDate"`
	ReturnedAt         *time.Time       `json:"returnedAt,omitempty"`
	Status             LoanStatus       `json:"status"`
	RenewalCount       int              `json:"renewalCount"`
	MaxRenewalsAllowed int              `json:"maxRenewalsAllowed"`
	LateFee            *decimal.Decimal `json:"lateFee,omitempty"`
	IsFeePaid          bool             `json:"isFeePaid"`
	Notes              string           `json:"notes,omitempty"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// OpenLoan creates a new Active loan that is due policy.LoanPeriod after borrowedAt.
// The id is assigned by the store on insert, see WithID.
func OpenLoan(memberID, bookID int64, borrowedAt time.Time, policy Policy) (Loan, error) {
	if err := policy.Validate(); err != nil {
		return Loan{}, err
	}

	return ReconstituteLoan(LoanRecord{
		MemberID:           memberID,
		BookID:             bookID,
		BorrowedAt:         borrowedAt,
		DueDate:            borrowedAt.Add(policy.LoanPeriod),
		Status:             LoanStatusActive,
		MaxRenewalsAllowed: policy.MaxRenewalsAllowed,
		UpdatedAt:          borrowedAt,
	})
}

// ReconstituteLoan builds a Loan from a stored record after checking every invariant.
func ReconstituteLoan(r LoanRecord) (Loan, error) {
	if err := r.validate(); err != nil {
		return Loan{}, errors.Join(ErrInvalidLoanState, err)
	}

	l := Loan{
		id:                 r.ID,
		memberID:           r.MemberID,
		bookID:             r.BookID,
		borrowedAt:         r.BorrowedAt,
		dueDate:            r.DueDate,
		status:             r.Status,
		renewalCount:       r.RenewalCount,
		maxRenewalsAllowed: r.MaxRenewalsAllowed,
		isFeePaid:          r.IsFeePaid,
		notes:              r.Notes,
		updatedAt:          r.UpdatedAt,
	}

	if r.ReturnedAt != nil {
		returnedAt := *r.ReturnedAt
		l.returnedAt = &returnedAt
	}

	if r.LateFee != nil {
		fee := *r.LateFee
		l.lateFee = &fee
	}

	return l, nil
}

func (r LoanRecord) validate() error {
	switch {
	case r.MemberID <= 0 || r.BookID <= 0:
		return fmt.Errorf("member id %d, book id %d", r.MemberID, r.BookID)
	case !r.Status.IsValid():
		return fmt.Errorf("unknown status %q", r.Status)
	case r.MaxRenewalsAllowed < 0 || r.RenewalCount < 0 || r.RenewalCount > r.MaxRenewalsAllowed:
		return fmt.Errorf("renewal count %d of %d", r.RenewalCount, r.MaxRenewalsAllowed)
	case r.DueDate.Before(r.BorrowedAt):
		return fmt.Errorf("due date %s before borrowed at %s", r.DueDate, r.BorrowedAt)
	case (r.ReturnedAt != nil) != (r.Status == LoanStatusReturned):
		return fmt.Errorf("returned at set for status %q", r.Status)
	case r.LateFee != nil && r.LateFee.IsNegative():
		return fmt.Errorf("negative late fee %s", r.LateFee)
	case r.IsFeePaid && (r.LateFee == nil || !r.LateFee.IsPositive()):
		return errors.New("fee paid without a late fee")
	}

	return nil
}

// Record returns the flat representation of l.
func (l Loan) Record() LoanRecord {
	r := LoanRecord{
		ID:                 l.id,
		MemberID:           l.memberID,
		BookID:             l.bookID,
		BorrowedAt:         l.borrowedAt,
		DueDate:            l.dueDate,
		Status:             l.status,
		RenewalCount:       l.renewalCount,
		MaxRenewalsAllowed: l.maxRenewalsAllowed,
		IsFeePaid:          l.isFeePaid,
		Notes:              l.notes,
		UpdatedAt:          l.updatedAt,
	}

	if l.returnedAt != nil {
		returnedAt := *l.returnedAt
		r.ReturnedAt = &returnedAt
	}

	if l.lateFee != nil {
		fee := *l.lateFee
		r.LateFee = &fee
	}

	return r
}

// MarshalJSON encodes the loan as its LoanRecord.
func (l Loan) MarshalJSON() ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(l.Record())
}

func (l Loan) ID() int64               { return l.id }
func (l Loan) MemberID() int64         { return l.memberID }
func (l Loan) BookID() int64           { return l.bookID }
func (l Loan) BorrowedAt() time.Time   { return l.borrowedAt }
func (l Loan) DueDate() time.Time      { return l.dueDate }
func (l Loan) Status() LoanStatus      { return l.status }
func (l Loan) RenewalCount() int       { return l.renewalCount }
func (l Loan) MaxRenewalsAllowed() int { return l.maxRenewalsAllowed }
func (l Loan) IsFeePaid() bool         { return l.isFeePaid }
func (l Loan) Notes() string           { return l.notes }
func (l Loan) UpdatedAt() time.Time    { return l.updatedAt }
func (l Loan) IsActive() bool          { return l.status == LoanStatusActive }
func (l Loan) HasRenewalsLeft() bool   { return l.renewalCount < l.maxRenewalsAllowed }

// ReturnedAt returns the return timestamp and whether it is set.
func (l Loan) ReturnedAt() (time.Time, bool) {
	if l.returnedAt == nil {
		return time.Time{}, false
	}

	return *l.returnedAt, true
}

// LateFee returns the fee fixed at return time and whether it is set.
func (l Loan) LateFee() (decimal.Decimal, bool) {
	if l.lateFee == nil {
		return decimal.Zero, false
	}

	return *l.lateFee, true
}

// IsOverdue reports status == Active && asOf > dueDate.
func (l Loan) IsOverdue(asOf time.Time) bool {
	return l.status == LoanStatusActive && asOf.After(l.dueDate)
}

// WithID assigns the store-generated id to a freshly opened loan.
func (l Loan) WithID(id int64) (Loan, error) {
	if l.id != 0 {
		return Loan{}, ErrLoanIDAlreadyAssigned
	}

	l.id = id

	return l, nil
}

// Renew extends dueDate by days and increments renewalCount in one step.
// Only an Active loan that is not overdue at now can be renewed.
func (l Loan) Renew(days int, now time.Time) (Loan, error) {
	if days <= 0 || days > MaxRenewalDays {
		return Loan{}, errors.Join(ErrInvalidRenewalDays, fmt.Errorf("renewal days %d", days))
	}

	if l.status != LoanStatusActive {
		return Loan{}, transitionError("renew", l.status)
	}

	if l.IsOverdue(now) {
		return Loan{}, errors.Join(ErrInvalidStateTransition, errors.New("cannot renew an overdue loan"))
	}

	if !l.HasRenewalsLeft() {
		return Loan{}, ErrRenewalLimitExceeded
	}

	next := l.Record()
	next.DueDate = l.dueDate.Add(time.Duration(days) * day)
	next.RenewalCount++
	next.UpdatedAt = now

	return ReconstituteLoan(next)
}

// Return closes an Active (possibly overdue) loan at now with the given late fee.
func (l Loan) Return(lateFee decimal.Decimal, now time.Time) (Loan, error) {
	if l.status != LoanStatusActive {
		return Loan{}, transitionError("return", l.status)
	}

	if lateFee.IsNegative() {
		return Loan{}, ErrNegativeAmount
	}

	next := l.Record()
	next.Status = LoanStatusReturned
	next.ReturnedAt = &now
	next.LateFee = &lateFee
	next.UpdatedAt = now

	return ReconstituteLoan(next)
}

// MarkLost ends an Active loan as lost. The copy is not released.
func (l Loan) MarkLost(now time.Time) (Loan, error) {
	return l.endInCondition(LoanStatusLost, "", now)
}

// MarkDamaged ends an Active loan as damaged. The copy is not released.
func (l Loan) MarkDamaged(notes string, now time.Time) (Loan, error) {
	return l.endInCondition(LoanStatusDamaged, notes, now)
}

func (l Loan) endInCondition(status LoanStatus, notes string, now time.Time) (Loan, error) {
	if l.status != LoanStatusActive {
		return Loan{}, transitionError("mark "+string(status), l.status)
	}

	next := l.Record()
	next.Status = status
	next.Notes = notes
	next.UpdatedAt = now

	return ReconstituteLoan(next)
}

// SettleFee marks the late fee of a Returned loan as paid.
func (l Loan) SettleFee(now time.Time) (Loan, error) {
	fee, hasFee := l.LateFee()

	if l.status != LoanStatusReturned || !hasFee || !fee.IsPositive() || l.isFeePaid {
		return Loan{}, transitionError("settle fee", l.status)
	}

	next := l.Record()
	next.IsFeePaid = true
	next.UpdatedAt = now

	return ReconstituteLoan(next)
}

func transitionError(action string, from LoanStatus) error {
	return errors.Join(ErrInvalidStateTransition, fmt.Errorf("cannot %s a loan in status %q", action, from))
}
