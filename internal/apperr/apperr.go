// Package apperr defines the error taxonomy shared by services and handlers.
// Services return *Error values; handlers map the kind to an HTTP status and
// never expose wrapped causes to the client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping
type Kind int

const (
	KindValidation Kind = iota
	KindAuthorization
	KindNotFound
	KindStateConflict
	KindPersistence
)

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus maps the error kind to a response status code
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func StateConflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindStateConflict, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a store failure. The cause stays server-side; clients
// only see the message.
func Persistence(message string, cause error) *Error {
	return &Error{Kind: KindPersistence, Message: message, cause: cause}
}

// From extracts an *Error from err, or wraps it as a persistence error
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Persistence("internal error", err)
}
