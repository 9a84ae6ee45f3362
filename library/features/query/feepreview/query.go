package feepreview

const (
	queryType = "PreviewLateFee"
)

// Query represents the intent to preview the late fee of an active loan.
type Query struct {
	LoanID int64
}

// BuildQuery creates a new Query with the provided loan ID.
func BuildQuery(loanID int64) Query {
	return Query{
		LoanID: loanID,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
