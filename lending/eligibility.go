package lending

import "time"

// EligibilityResult is either a pass or the first rule that failed.
type EligibilityResult struct {
	Eligible bool
	Reason   IneligibilityReason
}

// Err returns nil for a pass, otherwise an *IneligibleError for memberID.
func (r EligibilityResult) Err(memberID int64) error {
	if r.Eligible {
		return nil
	}

	return &IneligibleError{MemberID: memberID, Reason: r.Reason}
}

// CheckEligibility evaluates the borrowing rules in their user-facing order, first failure wins:
// member exists, account active, membership not expired at asOf, activeLoanCount below the
// member's limit, no outstanding fees. A nil member means the member does not exist.
func CheckEligibility(member *Member, activeLoanCount int, asOf time.Time) EligibilityResult {
	switch {
	case member == nil:
		return ineligible(ReasonMemberNotFound)
	case !member.IsActive:
		return ineligible(ReasonMemberInactive)
	case member.MembershipExpiresAt.Before(asOf):
		return ineligible(ReasonMembershipExpired)
	case activeLoanCount >= member.MaxBooksAllowed:
		return ineligible(ReasonBookLimitReached)
	case !member.OutstandingFees.IsZero():
		return ineligible(ReasonOutstandingFees)
	}

	return EligibilityResult{Eligible: true}
}

func ineligible(reason IneligibilityReason) EligibilityResult {
	return EligibilityResult{Eligible: false, Reason: reason}
}
