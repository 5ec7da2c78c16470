// Package errors provides coded errors for the backtest engine.
//
// Code ranges:
//   - General (1-99)
//   - Validation (100-199): bad parameters, invalid series, short history
//   - Data (200-299): missing or unavailable market data
//   - Indicator (300-399)
//   - Strategy (400-499)
//   - Backtest (600-699): simulation, drawdown and sweep failures
//   - Market data (700-799): fetch, parse and write failures
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeDataUnavailable, "no bars for %s", symbol)
//	if errors.HasCode(err, errors.ErrCodeDataUnavailable) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is an error tagged with an ErrorCode.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates an Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code and message to cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf attaches a code and formatted message to cause.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%d]: %s: %v", e.Code, e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s [%d]: %s", e.Code, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same code, so sentinel-style checks
// such as errors.Is(err, errors.New(ErrCodeDataUnavailable, "")) work.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// Is is errors.Is re-exported so callers need a single import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As re-exported so callers need a single import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the outermost ErrorCode in err's chain, or
// ErrCodeUnknown when the chain carries none.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var insufficient *InsufficientDataError
	if errors.As(err, &insufficient) {
		return ErrCodeInsufficientHistory
	}

	return ErrCodeUnknown
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}

		if e.Code == code {
			return true
		}

		err = e.Cause
	}

	return code == ErrCodeInsufficientHistory && IsInsufficientDataError(err)
}

// InsufficientDataError reports a series shorter than the lookback a
// calculation needs.
type InsufficientDataError struct {
	Required int
	Actual   int
	Symbol   string
	Message  string
}

// NewInsufficientDataErrorf creates an InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s (required %d bars, got %d)", e.Message, e.Required, e.Actual)
}

// IsInsufficientDataError checks err's chain for an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
