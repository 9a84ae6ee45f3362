package addcopies

const (
	commandType = "AddBookCopies"
)

// Command represents the intent to add Copies copies of a book.
type Command struct {
	BookID int64
	Copies int
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID int64, copies int) Command {
	return Command{
		BookID: bookID,
		Copies: copies,
	}
}
