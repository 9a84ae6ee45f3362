package lending

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// MaxRenewalDays is the longest extension whose duration still fits a time.Duration.
const MaxRenewalDays = int(math.MaxInt64 / int64(day))

// FeeScale is the number of decimal places fees are stored with.
const FeeScale = 2

// DaysOverdue returns the whole days between dueDate and asOf, never negative.
func DaysOverdue(dueDate, asOf time.Time) int64 {
	if !asOf.After(dueDate) {
		return 0
	}

	return int64(asOf.Sub(dueDate) / day)
}

// CalculateLateFee returns DaysOverdue(dueDate, asOf) * dailyRate, rounded half away from zero
// to FeeScale places the way a NUMERIC(12,2) column rounds it.
// It is pure: asOf is injected so the same function serves previews and final returns.
func CalculateLateFee(dueDate, asOf time.Time, dailyRate decimal.Decimal) decimal.Decimal {
	days := DaysOverdue(dueDate, asOf)
	if days == 0 || dailyRate.IsNegative() {
		return decimal.Zero
	}

	return dailyRate.Mul(decimal.NewFromInt(days)).Round(FeeScale)
}
