package renewloan

const (
	commandType = "RenewLoan"
)

// Command represents the intent to extend a loan by AdditionalDays.
type Command struct {
	LoanID         int64
	AdditionalDays int
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID int64, additionalDays int) Command {
	return Command{
		LoanID:         loanID,
		AdditionalDays: additionalDays,
	}
}
