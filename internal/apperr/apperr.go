// Package apperr defines the error taxonomy shared by every vidhub component.
//
// Components raise a tagged *Error at the point of detection. The HTTP layer
// maps the Kind to a status code in exactly one place; nothing in between
// collapses kinds into a generic failure.
//
//	if err := svc.Delete(ctx, who, id); err != nil {
//	    switch apperr.KindOf(err) {
//	    case apperr.KindNotFound: ...
//	    }
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by who is at fault and what the caller can do.
type Kind string

const (
	// KindValidation is malformed or missing input.
	KindValidation Kind = "validation"

	// KindAuthentication is a bad credential or a missing, invalid,
	// expired or stale token.
	KindAuthentication Kind = "authentication"

	// KindAuthorization is an authenticated caller acting on a resource
	// they do not own.
	KindAuthorization Kind = "authorization"

	// KindNotFound is an absent resource or account.
	KindNotFound Kind = "not_found"

	// KindConflict is a uniqueness violation reported by the store.
	KindConflict Kind = "conflict"

	// KindInternal is a collaborator failure unrelated to caller input.
	KindInternal Kind = "internal"
)

// Error is a tagged error carrying its Kind, a caller-safe message, and an
// optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a tagged error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags err with kind and a caller-safe message.
// A nil err yields nil so Wrap can be used on a return path directly.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a KindValidation error.
func Validation(message string) *Error { return New(KindValidation, message) }

// Authentication creates a KindAuthentication error.
func Authentication(message string) *Error { return New(KindAuthentication, message) }

// Authorization creates a KindAuthorization error.
func Authorization(message string) *Error { return New(KindAuthorization, message) }

// NotFound creates a KindNotFound error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Conflict creates a KindConflict error.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Internal wraps a collaborator failure as KindInternal.
func Internal(message string, err error) error { return Wrap(KindInternal, message, err) }

// KindOf returns the Kind of the outermost tagged error in err's chain.
// Untagged errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message of the outermost tagged error.
// Untagged errors return an empty string.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// Is reports whether err is tagged with kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
