package lending

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultLoanPeriod         = 14 * 24 * time.Hour
	DefaultRenewalDays        = 14
	DefaultMaxRenewalsAllowed = 2
	DefaultDailyLateFee       = "0.25"
)

// Policy holds the circulation rules applied by the orchestrator.
type Policy struct {
	LoanPeriod         time.Duration
	RenewalDays        int
	MaxRenewalsAllowed int
	DailyLateFee       decimal.Decimal
}

// DefaultPolicy returns a two-week loan, two renewals of two weeks each and a daily fee of 0.25.
func DefaultPolicy() Policy {
	return Policy{
		LoanPeriod:         DefaultLoanPeriod,
		RenewalDays:        DefaultRenewalDays,
		MaxRenewalsAllowed: DefaultMaxRenewalsAllowed,
		DailyLateFee:       decimal.RequireFromString(DefaultDailyLateFee),
	}
}

// Validate checks that all durations and counts are usable.
func (p Policy) Validate() error {
	switch {
	case p.LoanPeriod <= 0:
		return errors.Join(ErrInvalidLoanPolicy, fmt.Errorf("loan period %s", p.LoanPeriod))
	case p.RenewalDays <= 0, p.RenewalDays > MaxRenewalDays:
		return errors.Join(ErrInvalidLoanPolicy, fmt.Errorf("renewal days %d", p.RenewalDays))
	case p.MaxRenewalsAllowed < 0:
		return errors.Join(ErrInvalidLoanPolicy, fmt.Errorf("max renewals %d", p.MaxRenewalsAllowed))
	case p.DailyLateFee.IsNegative():
		return errors.Join(ErrInvalidLoanPolicy, fmt.Errorf("daily late fee %s", p.DailyLateFee))
	}

	return nil
}
