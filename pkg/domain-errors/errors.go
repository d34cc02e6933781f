// Package domainerrors provides code-based errors for the blood bank service.
// Services return these so transports can translate outcomes to HTTP statuses
// without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers. All four business outcomes
// (not_approved, cooldown_active, invalid_units, insufficient_stock) are
// recoverable decisions, never process-fatal.
type Code string

const (
	CodeBadRequest        Code = "bad_request"
	CodeNotFound          Code = "not_found"
	CodeNotApproved       Code = "not_approved"
	CodeCooldownActive    Code = "cooldown_active"
	CodeInvalidUnits      Code = "invalid_units"
	CodeInsufficientStock Code = "insufficient_stock"
	CodeTransient         Code = "transient_failure"
	CodeTimeout           Code = "timeout"
	CodeUnauthorized      Code = "unauthorized"
	CodeInternal          Code = "internal"
)

// Error carries a code alongside the message and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a domain error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// ToHTTPStatus maps a code to the HTTP status used in JSON error envelopes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidUnits:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotApproved:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeCooldownActive, CodeInsufficientStock:
		return http.StatusConflict
	case CodeTransient:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
