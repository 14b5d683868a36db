package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed workflow operation. Precedence when several
// could apply: unreachable > server > application > validation.
type Kind string

const (
	// KindUnreachable means the request never reached the backend
	// (refused connection, DNS failure, offline). Recoverable by retry.
	KindUnreachable Kind = "unreachable"
	// KindServerError means the backend answered with a non-2xx status.
	KindServerError Kind = "server_error"
	// KindApplication means a 2xx response carried an error field; the
	// message is server-supplied and shown near-verbatim.
	KindApplication Kind = "application"
	// KindValidation marks purely local failures that never touch the
	// network, such as a disallowed file extension.
	KindValidation Kind = "validation"
)

// Error is the single classified error every operation resolves to.
type Error struct {
	Kind    Kind
	Message string
	Status  int // HTTP status for server errors, zero otherwise
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Unreachable wraps a transport-level failure.
func Unreachable(err error) *Error {
	return &Error{Kind: KindUnreachable, Message: "cannot reach the QuillDeck server", Err: err}
}

// ServerError records a non-success HTTP status.
func ServerError(status int) *Error {
	return &Error{Kind: KindServerError, Message: fmt.Sprintf("server error: %s", http.StatusText(status)), Status: status}
}

// Application carries a server-supplied error message from a 2xx payload.
func Application(message string) *Error {
	return &Error{Kind: KindApplication, Message: message}
}

// Validation marks a local failure detected before any request is made.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// KindOf reports the classification of err, or the empty Kind when err
// is not a classified error.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}
