package activeloans

const (
	queryType = "GetActiveLoans"
)

// Query represents the intent to list the active loans of a member.
type Query struct {
	MemberID int64
}

// BuildQuery creates a new Query with the provided member ID.
func BuildQuery(memberID int64) Query {
	return Query{
		MemberID: memberID,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
