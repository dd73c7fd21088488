// Package apperr defines the failure kinds returned by the sweet shop core.
//
// Services never leak raw store errors: every failure crossing a service
// boundary is an *Error carrying one of the kinds below, and the HTTP layer
// maps the kind to a status code with HTTPStatus.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindValidation
	KindDuplicate
	KindInsufficientInventory
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindInsufficientInventory:
		return "insufficient_inventory"
	default:
		return "internal"
	}
}

// Error is a categorized failure. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error of the same kind, so the
// sentinels below work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInternal              = &Error{Kind: KindInternal, Message: "internal server error"}
	ErrAuthentication        = &Error{Kind: KindAuthentication, Message: "authentication failed"}
	ErrAuthorization         = &Error{Kind: KindAuthorization, Message: "admin access required"}
	ErrNotFound              = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrValidation            = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrDuplicate             = &Error{Kind: KindDuplicate, Message: "resource already exists"}
	ErrInsufficientInventory = &Error{Kind: KindInsufficientInventory, Message: "insufficient inventory"}
)

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Authentication(msg string) *Error { return &Error{Kind: KindAuthentication, Message: msg} }

func Authorization(msg string) *Error { return &Error{Kind: KindAuthorization, Message: msg} }

func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }

func Duplicate(format string, args ...any) *Error { return newf(KindDuplicate, format, args...) }

// InsufficientInventory reports both the available and requested amounts.
func InsufficientInventory(available, requested int) *Error {
	return newf(KindInsufficientInventory,
		"Insufficient inventory. Available: %d, Requested: %d", available, requested)
}

// Internal wraps an unexpected fault. The cause stays out of Message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf returns the kind of err; uncategorized errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}

// HTTPStatus maps err to the status code the HTTP layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindDuplicate, KindInsufficientInventory:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
