// Package apperr defines the error kinds surfaced by the API and their HTTP statuses.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for reporting to the client.
type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	InvalidCredential
	Forbidden
	NotFound
	MalformedInput
	RankingFailure
	Conflict
	TooManyRequests
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a client-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err, keeping it as the cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case InvalidCredential, Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case MalformedInput:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "Unauthenticated"
	case InvalidCredential:
		return "InvalidCredential"
	case Forbidden:
		return "Forbidden"
	case NotFound:
		return "NotFound"
	case MalformedInput:
		return "MalformedInput"
	case RankingFailure:
		return "RankingFailure"
	case Conflict:
		return "Conflict"
	case TooManyRequests:
		return "TooManyRequests"
	default:
		return "Internal"
	}
}
