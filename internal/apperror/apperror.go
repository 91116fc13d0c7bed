// Package apperror defines the error kinds handlers return and the HTTP
// status each one maps to. Messages on an Error are safe to show to clients,
// the wrapped error is only ever logged.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateEmail
	KindUnauthenticated
	KindNotFound
	KindTooLarge
	KindRateLimited
	KindDependency
	KindConfiguration
)

var statusByKind = map[Kind]int{
	KindInternal:        http.StatusInternalServerError,
	KindValidation:      http.StatusBadRequest,
	KindDuplicateEmail:  http.StatusBadRequest,
	KindUnauthenticated: http.StatusUnauthorized,
	KindNotFound:        http.StatusNotFound,
	KindTooLarge:        http.StatusRequestEntityTooLarge,
	KindRateLimited:     http.StatusTooManyRequests,
	KindDependency:      http.StatusBadGateway,
	KindConfiguration:   http.StatusInternalServerError,
}

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindValidation:      "validation",
	KindDuplicateEmail:  "duplicate_email",
	KindUnauthenticated: "unauthenticated",
	KindNotFound:        "not_found",
	KindTooLarge:        "too_large",
	KindRateLimited:     "rate_limited",
	KindDependency:      "dependency_failure",
	KindConfiguration:   "configuration",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if s, ok := statusByKind[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s, %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind so callers can write
// errors.Is(err, apperror.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Kind-only targets for errors.Is.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrDuplicateEmail  = &Error{Kind: KindDuplicateEmail}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrDependency      = &Error{Kind: KindDependency}
	ErrConfiguration   = &Error{Kind: KindConfiguration}
)

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func DuplicateEmail() *Error {
	return &Error{Kind: KindDuplicateEmail, Message: "Email is already registered!"}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func TooLarge(msg string) *Error {
	return &Error{Kind: KindTooLarge, Message: msg}
}

func RateLimited() *Error {
	return &Error{Kind: KindRateLimited, Message: "Too many requests"}
}

func Dependency(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

func Configuration(msg string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Err: err}
}

// Internal hides err behind a generic message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// From converts any error into an *Error. Errors that don't carry a kind
// become internal errors, request bodies over the limit become TooLarge.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return &Error{Kind: KindTooLarge, Message: "Request body size exceeds limit", Err: err}
	}

	return Internal(err)
}
