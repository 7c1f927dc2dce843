// Package apperr carries status-coded errors from services to handlers.
package apperr

import "net/http"

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error { return New(http.StatusBadRequest, message) }

func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }

func Forbidden(message string) *Error { return New(http.StatusForbidden, message) }

func NotFound(message string) *Error { return New(http.StatusNotFound, message) }

// Conflict reports a storage uniqueness violation as a client error.
func Conflict(message string) *Error { return New(http.StatusConflict, message) }
