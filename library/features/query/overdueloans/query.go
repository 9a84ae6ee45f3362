package overdueloans

import "time"

const (
	queryType = "GetOverdueLoans"
)

// Query represents the intent to list every loan that is overdue as of AsOf.
type Query struct {
	AsOf time.Time
}

// BuildQuery creates a new Query with the provided instant.
func BuildQuery(asOf time.Time) Query {
	return Query{
		AsOf: asOf.UTC(),
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
