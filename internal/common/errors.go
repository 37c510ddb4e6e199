package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced in the REST error envelope.
const (
	CodeInvalidInput      = "VAL_001" // malformed symbol/price/quantity/pagination params
	CodePriceOutOfRange   = "VAL_002" // price outside the ±2% tolerance band
	CodeStockNotFound     = "VAL_003" // unknown symbol
	CodeHoldingsNotFound  = "VAL_004" // user has no portfolio holdings
	CodeVendorError       = "API_001" // vendor communication or business error
	CodeVendorUnavailable = "API_002" // vendor unreachable after retries
	CodeStorageError      = "DB_001"  // persistence failure
	CodeInternalError     = "SYS_001" // unexpected error
)

// AppError is the typed error carried across service boundaries. Handlers
// translate it into the standard envelope; services construct it with the
// code that matches the failure class.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	cause      error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured details for the envelope's details field.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause records the underlying error for server-side logs only.
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// NewInvalidInput reports a user-correctable input validation failure.
func NewInvalidInput(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message, HTTPStatus: http.StatusBadRequest}
}

// NewPriceOutOfRange reports a tolerance-rule violation.
func NewPriceOutOfRange(message string) *AppError {
	return &AppError{Code: CodePriceOutOfRange, Message: message, HTTPStatus: http.StatusUnprocessableEntity}
}

// NewStockNotFound reports an unknown symbol.
func NewStockNotFound(symbol string) *AppError {
	return &AppError{
		Code:       CodeStockNotFound,
		Message:    fmt.Sprintf("stock '%s' not found", symbol),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewHoldingsNotFound reports a user with no portfolio holdings.
func NewHoldingsNotFound(userID string) *AppError {
	return &AppError{
		Code:       CodeHoldingsNotFound,
		Message:    fmt.Sprintf("no holdings found for user '%s'", userID),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewVendorError reports a terminal vendor failure (business rejection or
// persistent 5xx after retries).
func NewVendorError(message string) *AppError {
	return &AppError{Code: CodeVendorError, Message: message, HTTPStatus: http.StatusBadGateway}
}

// NewVendorUnavailable reports a vendor that produced no response after
// exhausting retries.
func NewVendorUnavailable(message string) *AppError {
	return &AppError{Code: CodeVendorUnavailable, Message: message, HTTPStatus: http.StatusServiceUnavailable}
}

// NewStorageError wraps a persistence failure.
func NewStorageError(message string, cause error) *AppError {
	return &AppError{
		Code:       CodeStorageError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		cause:      cause,
	}
}

// NewInternalError wraps an unexpected failure without leaking internals.
func NewInternalError(cause error) *AppError {
	return &AppError{
		Code:       CodeInternalError,
		Message:    "unexpected error",
		HTTPStatus: http.StatusInternalServerError,
		cause:      cause,
	}
}

// AsAppError unwraps err into an *AppError, or wraps it as SYS_001.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}
