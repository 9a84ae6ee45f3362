package createloan

const (
	commandType = "CreateLoan"
)

// Command represents the intent of a member to borrow a book.
type Command struct {
	MemberID int64
	BookID   int64
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(memberID, bookID int64) Command {
	return Command{
		MemberID: memberID,
		BookID:   bookID,
	}
}
