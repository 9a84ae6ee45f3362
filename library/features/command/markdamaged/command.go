package markdamaged

const (
	commandType = "MarkLoanDamaged"
)

// Command represents the report that a borrowed copy came back damaged.
type Command struct {
	LoanID int64
	Notes  string
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID int64, notes string) Command {
	return Command{
		LoanID: loanID,
		Notes:  notes,
	}
}
