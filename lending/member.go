package lending

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member carries the eligibility-relevant fields of a library member.
type Member struct {
	ID                  int64           `json:"id"`
	IsActive            bool            `json:"isActive"`
	MembershipExpiresAt time.Time       `json:"membershipExpiresAt"`
	MaxBooksAllowed     int             `json:"maxBooksAllowed"`
	OutstandingFees     decimal.Decimal `json:"outstandingFees"`
}

// NewMember returns an unpersisted member without outstanding fees.
func NewMember(isActive bool, membershipExpiresAt time.Time, maxBooksAllowed int) (Member, error) {
	if maxBooksAllowed < 0 {
		return Member{}, ErrInvalidMaxBooksAllowed
	}

	return Member{
		IsActive:            isActive,
		MembershipExpiresAt: membershipExpiresAt,
		MaxBooksAllowed:     maxBooksAllowed,
		OutstandingFees:     decimal.Zero,
	}, nil
}
