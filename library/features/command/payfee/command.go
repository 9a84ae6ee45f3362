package payfee

const (
	commandType = "PayLateFee"
)

// Command represents the payment of a loan's late fee.
type Command struct {
	LoanID int64
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID int64) Command {
	return Command{
		LoanID: loanID,
	}
}
