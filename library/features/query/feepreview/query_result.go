package feepreview

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeePreview is the fee a return at AsOf would charge.
type FeePreview struct {
	LoanID      int64           `json:"loanId"`
	DueDate     time.Time       `json:"dueDate"`
	AsOf        time.Time       `json:"asOf"`
	DaysOverdue int64           `json:"daysOverdue"`
	Fee         decimal.Decimal `json:"fee"`
	IsOverdue   bool            `json:"isOverdue"`
}
