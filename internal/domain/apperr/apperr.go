// Package apperr defines the typed error taxonomy shared by the application
// services and the HTTP boundary. Every domain failure carries an HTTP status
// and a caller-facing message; the HTTP adapter translates them into a uniform
// {status, message} JSON response.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error beyond its HTTP status. CryptoFailure and
// Unauthorized both map to 401, but callers (and tests) need to tell a
// decryption integrity failure apart from a plain missing credential.
type Kind string

const (
	KindBadRequest    Kind = "bad_request"
	KindUnauthorized  Kind = "unauthorized"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindBadGateway    Kind = "bad_gateway"
	KindCryptoFailure Kind = "crypto_failure"
	KindGeneral       Kind = "general"
)

// Error is a domain failure with an associated HTTP status code.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error // wrapped cause, may be nil
}

// Error returns the caller-facing message.
func (e *Error) Error() string { return e.Message }

// Unwrap exposes the wrapped cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// BadRequest reports malformed or invalid input (invalid repo ids, empty scope).
func BadRequest(format string, args ...any) *Error {
	return newError(KindBadRequest, http.StatusBadRequest, format, args...)
}

// Unauthorized reports a missing or invalid caller credential, an expired or
// deactivated link, or a revoked remote grant.
func Unauthorized(format string, args ...any) *Error {
	return newError(KindUnauthorized, http.StatusUnauthorized, format, args...)
}

// NotFound reports an unknown link, slug, or resource.
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, http.StatusNotFound, format, args...)
}

// Conflict reports a slug collision.
func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, http.StatusConflict, format, args...)
}

// BadGateway reports an unexpected upstream failure from the remote host.
func BadGateway(format string, args ...any) *Error {
	return newError(KindBadGateway, http.StatusBadGateway, format, args...)
}

// CryptoFailure reports a decryption integrity failure. It is treated as
// "credential unusable" and surfaces with the same status as Unauthorized.
func CryptoFailure(cause error) *Error {
	return &Error{
		Kind:    KindCryptoFailure,
		Status:  http.StatusUnauthorized,
		Message: "stored credential could not be decrypted",
		Err:     cause,
	}
}

// General reports an otherwise unclassified server-side failure.
func General(cause error) *Error {
	return &Error{
		Kind:    KindGeneral,
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
		Err:     cause,
	}
}

// WithCause attaches the underlying cause and returns the error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// From extracts an *Error from err's chain. Returns (nil, false) when err is
// not a domain error.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err's chain contains a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := From(err)
	return ok && e.Kind == kind
}

func newError(kind Kind, status int, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Status:  status,
		Message: fmt.Sprintf(format, args...),
	}
}
