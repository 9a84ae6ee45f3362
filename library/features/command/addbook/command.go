package addbook

const (
	commandType = "AddBook"
)

// Command represents the intent to add a book to the inventory.
type Command struct {
	Title       string
	TotalCopies int
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(title string, totalCopies int) Command {
	return Command{
		Title:       title,
		TotalCopies: totalCopies,
	}
}
