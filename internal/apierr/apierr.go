// Package apierr is the single tagged error type the coordinator uses
// everywhere instead of stringly-typed errors.
package apierr

import "net/http"

// Kind is the closed set of error classes the HTTP front reflects in its
// response body and status code.
type Kind string

const (
	NotFound            Kind = "not_found"
	BadRequest          Kind = "bad_request"
	Conflict            Kind = "conflict"
	UnprocessableEntity Kind = "unprocessable_entity"
	Internal            Kind = "internal"
)

// Error carries a Kind and a message meant to be surfaced verbatim to the
// client — validator errors in particular must reach the worker so it can
// log which check it failed.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// New constructs a tagged error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NotFoundf, BadRequestf, Unprocessablef and Internalf are the constructors
// each layer reaches for; named per-kind rather than a single New call at
// every site.
func NotFoundf(msg string) *Error            { return New(NotFound, msg) }
func BadRequestf(msg string) *Error          { return New(BadRequest, msg) }
func Conflictf(msg string) *Error            { return New(Conflict, msg) }
func Unprocessablef(msg string) *Error       { return New(UnprocessableEntity, msg) }
func Internalf(msg string) *Error            { return New(Internal, msg) }

// HTTPStatus maps a Kind to the status code the HTTP front mirrors it with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case NotFound:
		return http.StatusNotFound
	case BadRequest:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case UnprocessableEntity:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
