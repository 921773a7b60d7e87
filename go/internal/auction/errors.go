package auction

import "fmt"

// Code identifies a business-rule failure. Codes travel to the originating
// client on the ERROR event; they are never broadcast.
type Code string

const (
	// Validation failures. Expected, recoverable, state untouched.
	CodeBidTooLow                Code = "BID_TOO_LOW"
	CodeNotYourTurn              Code = "NOT_YOUR_TURN"
	CodeAlreadyPassed            Code = "ALREADY_PASSED"
	CodeCannotPassWhileWinning   Code = "CANNOT_PASS_WHILE_WINNING"
	CodeInsufficientBudget       Code = "INSUFFICIENT_BUDGET"
	CodeReservedFundsViolation   Code = "RESERVED_FUNDS_VIOLATION"
	CodeSimultaneousLimitReached Code = "SIMULTANEOUS_LIMIT_REACHED"
	CodeAlreadyUp                Code = "ALREADY_UP"
	CodeLotExpired               Code = "LOT_EXPIRED"
	CodeLotNotActive             Code = "LOT_NOT_ACTIVE"
	CodeAuctionNotActive         Code = "AUCTION_NOT_ACTIVE"
	CodeNoWinningBid             Code = "NO_WINNING_BID"
	CodeMalformedCommand         Code = "MALFORMED_COMMAND"

	// Authorization failures.
	CodeNotAuthorized Code = "NOT_AUTHORIZED"

	// Not-found failures. Usually a stale client view; the caller should
	// refresh full state.
	CodeAuctionNotFound Code = "AUCTION_NOT_FOUND"
	CodeLotNotFound     Code = "LOT_NOT_FOUND"
	CodeBidderNotFound  Code = "BIDDER_NOT_FOUND"
	CodeItemNotFound    Code = "ITEM_NOT_FOUND"

	// Infrastructure failures. Logged and surfaced distinctly, never mixed
	// into the validation channel.
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"
)

// Error is a typed business-rule failure returned by transition functions.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds an Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether the error indicates a missing entity.
func (e *Error) IsNotFound() bool {
	switch e.Code {
	case CodeAuctionNotFound, CodeLotNotFound, CodeBidderNotFound, CodeItemNotFound:
		return true
	default:
		return false
	}
}

// IsInfrastructure reports whether the error came from a collaborator rather
// than a business rule.
func (e *Error) IsInfrastructure() bool {
	return e.Code == CodePersistenceFailure
}
