// Package apperror defines the error kinds shared by the service and HTTP layers.
//
// Every domain error is an *Error carrying one of the kind sentinels below, so
// callers can match either the specific error or its kind:
//
//	errors.Is(err, lending.ErrLimitExceeded) // specific
//	errors.Is(err, apperror.ErrConflict)      // kind
package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication error")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrPersistence    = errors.New("persistence error")
)

// Error is an application error with a client-safe message.
type Error struct {
	Kind    error
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// New creates an error of the given kind.
func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(message string) *Error {
	return New(ErrValidation, "validation_error", message)
}

func Unauthenticated(message string) *Error {
	return New(ErrAuthentication, "authentication_error", message)
}

func Forbidden(message string) *Error {
	return New(ErrForbidden, "forbidden", message)
}

func NotFound(message string) *Error {
	return New(ErrNotFound, "not_found", message)
}

func Conflict(message string) *Error {
	return New(ErrConflict, "conflict", message)
}

// Persistence wraps a storage failure. The cause is kept for logging only.
// Application errors pass through unchanged.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: ErrPersistence, Code: "persistence_error", Message: "internal server error", Err: err}
}

// StatusCode maps an error to its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message and code for err.
// Anything that is not an *Error, and persistence errors, become a generic message.
func Message(err error) (message, code string) {
	var appErr *Error
	if errors.As(err, &appErr) && !errors.Is(appErr.Kind, ErrPersistence) {
		return appErr.Message, appErr.Code
	}
	return "internal server error", "internal_error"
}
