package registermember

import "time"

const (
	commandType = "RegisterMember"
)

// Command represents the intent to register a library member.
type Command struct {
	IsActive            bool
	MembershipExpiresAt time.Time
	MaxBooksAllowed     int
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(isActive bool, membershipExpiresAt time.Time, maxBooksAllowed int) Command {
	return Command{
		IsActive:            isActive,
		MembershipExpiresAt: membershipExpiresAt.UTC(),
		MaxBooksAllowed:     maxBooksAllowed,
	}
}
