package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Wager errors
	ErrInvalidBetParameters    ErrorCode = "INVALID_BET_PARAMETERS"
	ErrInsufficientFunds       ErrorCode = "INSUFFICIENT_FUNDS"
	ErrTamperedGameState       ErrorCode = "TAMPERED_GAME_STATE"
	ErrConcurrentWagerConflict ErrorCode = "CONCURRENT_WAGER_CONFLICT"
	ErrRateLimited             ErrorCode = "RATE_LIMITED"
	ErrWagerNotFound           ErrorCode = "WAGER_NOT_FOUND"
	ErrWalletNotFound          ErrorCode = "WALLET_NOT_FOUND"

	// System errors
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
)

// GameError represents a wager-related error
type GameError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GameError) Unwrap() error {
	return e.Err
}

// NewGameError creates a new GameError
func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a GameError with a formatted message
func Errorf(code ErrorCode, format string, args ...interface{}) *GameError {
	return NewGameError(code, fmt.Sprintf(format, args...))
}

// WrapError wraps an existing error in a GameError
func WrapError(code ErrorCode, message string, err error) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsGameError checks if an error is a GameError and has a specific code
func IsGameError(err error, code ErrorCode) bool {
	var gameErr *GameError
	if err == nil {
		return false
	}
	if ok := As(err, &gameErr); !ok {
		return false
	}
	return gameErr.Code == code
}

// IsRetryable reports whether the caller may safely resubmit the same request.
func IsRetryable(err error) bool {
	return IsGameError(err, ErrConcurrentWagerConflict)
}

// CodeOf returns the code of the outermost GameError in the chain, or
// ErrInternalError for anything else.
func CodeOf(err error) ErrorCode {
	var gameErr *GameError
	if As(err, &gameErr) {
		return gameErr.Code
	}
	return ErrInternalError
}

// As finds the first GameError in the error chain
func As(err error, target **GameError) bool {
	if target == nil || err == nil {
		return false
	}
	return errors.As(err, target)
}
