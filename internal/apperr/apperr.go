// Package apperr defines the error taxonomy shared by the service and HTTP
// layers. Every domain failure carries an HTTP status and a client-safe
// message; callers match the kind with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrBadRequest   = errors.New("bad_request")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid_token")
	ErrTokenRevoked = errors.New("token_revoked")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrInternal     = errors.New("internal_error")
)

type Error struct {
	Status  int
	Message string
	Kind    error
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Code is the machine-readable kind reported in error bodies.
func (e *Error) Code() string {
	if e.Kind == nil {
		return ErrInternal.Error()
	}
	return e.Kind.Error()
}

func BadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg, Kind: ErrBadRequest}
}

func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg, Kind: ErrConflict}
}

func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg, Kind: ErrUnauthorized}
}

func InvalidToken(msg string, err error) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg, Kind: ErrInvalidToken, Err: err}
}

func TokenRevoked(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg, Kind: ErrTokenRevoked}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg, Kind: ErrForbidden}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg, Kind: ErrNotFound}
}

func Internal(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, Kind: ErrInternal, Err: err}
}

// As extracts the domain error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
