package engine

import (
	"errors"
	"fmt"
	"time"
)

// Code is a machine-readable failure reason, stable across the HTTP surface.
type Code string

const (
	CodeInvalidConfiguration Code = "INVALID_CONFIGURATION"
	CodeIndexOutOfRange      Code = "INDEX_OUT_OF_RANGE"
	CodeInvalidStake         Code = "INVALID_STAKE"
	CodeInvalidRiskLevel     Code = "INVALID_RISK_LEVEL"
	CodeInsufficientBalance  Code = "INSUFFICIENT_BALANCE"
	CodeInsufficientQuantity Code = "INSUFFICIENT_QUANTITY"

	// Round state errors
	CodeInvalidRoundState   Code = "INVALID_ROUND_STATE"
	CodeNoActiveRound       Code = "NO_ACTIVE_ROUND"
	CodeNothingToCashOut    Code = "NOTHING_TO_CASH_OUT"
	CodeCellAlreadyRevealed Code = "CELL_ALREADY_REVEALED"

	CodeRateLimited   Code = "RATE_LIMITED"
	CodeEmptyCatalog  Code = "EMPTY_CATALOG"
	CodeNoCardsInTier Code = "NO_CARDS_IN_TIER"

	// Collaborator failures
	CodeRandomSourceFailure Code = "RANDOM_SOURCE_FAILURE"
	CodeStorageFailure      Code = "STORAGE_FAILURE"
)

// parentCodes lets a specific code also match its broader category with errors.Is.
var parentCodes = map[Code]Code{
	CodeNoActiveRound:       CodeInvalidRoundState,
	CodeNothingToCashOut:    CodeInvalidRoundState,
	CodeCellAlreadyRevealed: CodeInvalidRoundState,
}

type Error struct {
	Code       Code
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match on code, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == e.Code {
		return true
	}
	parent, ok := parentCodes[e.Code]
	return ok && parent == t.Code
}

var (
	ErrInvalidConfiguration = &Error{Code: CodeInvalidConfiguration}
	ErrIndexOutOfRange      = &Error{Code: CodeIndexOutOfRange}
	ErrInvalidStake         = &Error{Code: CodeInvalidStake}
	ErrInvalidRiskLevel     = &Error{Code: CodeInvalidRiskLevel}
	ErrInsufficientBalance  = &Error{Code: CodeInsufficientBalance}
	ErrInsufficientQuantity = &Error{Code: CodeInsufficientQuantity}
	ErrInvalidRoundState    = &Error{Code: CodeInvalidRoundState}
	ErrNoActiveRound        = &Error{Code: CodeNoActiveRound}
	ErrNothingToCashOut     = &Error{Code: CodeNothingToCashOut}
	ErrCellAlreadyRevealed  = &Error{Code: CodeCellAlreadyRevealed}
	ErrRateLimited          = &Error{Code: CodeRateLimited}
	ErrEmptyCatalog         = &Error{Code: CodeEmptyCatalog}
	ErrNoCardsInTier        = &Error{Code: CodeNoCardsInTier}
	ErrRandomSourceFailure  = &Error{Code: CodeRandomSourceFailure}
	ErrStorageFailure       = &Error{Code: CodeStorageFailure}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the engine code from err, or "" when err did not come from
// the engine.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// RetryAfterOf returns the cooldown carried by a RATE_LIMITED error.
func RetryAfterOf(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}
