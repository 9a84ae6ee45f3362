package shell

import (
	"errors"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	msgNotFound               = "the requested record does not exist"
	msgUnavailable            = "no copies of this book are available"
	msgInvalidStateTransition = "the loan is not in a state that allows this operation"
	msgRenewalLimitExceeded   = "the loan has reached its renewal limit"
	msgBookHasCopiesOnLoan    = "the book still has copies on loan"
	msgConcurrencyConflict    = "the loan was changed by another request, please retry"
	msgInvalidArgument        = "the request contains an invalid value"
	msgInternal               = "an internal error occurred"
)

// ErrorResponse is the caller-facing shape of a failed operation.
// It carries a stable code and a message, never the underlying storage error text.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewErrorResponse maps err to its code and user message.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Error:   lending.ErrorCode(err),
		Message: UserMessage(err),
	}
}

// UserMessage returns the user-facing text for err.
func UserMessage(err error) string {
	var (
		ineligible *lending.IneligibleError
		notFound   *lending.NotFoundError
	)

	if errors.As(err, &ineligible) {
		return ineligible.Reason.Message()
	}

	if errors.As(err, &notFound) {
		return "the " + notFound.Entity + " does not exist"
	}

	switch lending.ErrorCode(err) {
	case "":
		return ""
	case lending.CodeNotFound:
		return msgNotFound
	case lending.CodeUnavailable:
		return msgUnavailable
	case lending.CodeInvalidStateTransition:
		return msgInvalidStateTransition
	case lending.CodeRenewalLimitExceeded:
		return msgRenewalLimitExceeded
	case lending.CodeBookHasCopiesOnLoan:
		return msgBookHasCopiesOnLoan
	case lending.CodeConcurrencyConflict:
		return msgConcurrencyConflict
	case lending.CodeInvalidArgument:
		return msgInvalidArgument
	default:
		return msgInternal
	}
}
