package bookinventory

const (
	queryType = "GetBookInventory"
)

// Query represents the intent to read the copy counts of a book.
type Query struct {
	BookID int64
}

// BuildQuery creates a new Query with the provided book ID.
func BuildQuery(bookID int64) Query {
	return Query{
		BookID: bookID,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
