// Package apperr defines the closed error taxonomy shared by all domain
// services. Every error crossing a service boundary carries exactly one Kind;
// the transport layer maps kinds to HTTP status codes and never inspects
// messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindConflict
	KindExternalService
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindExternalService:
		return "external_service"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Kind implements error so that errors.Is(err, apperr.KindConflict) matches
// any *Error of that kind anywhere in the chain.
func (k Kind) Error() string {
	return k.String()
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Authorization(message string) *Error {
	return New(KindAuthorization, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func ExternalService(message string, cause error) *Error {
	return Wrap(KindExternalService, message, cause)
}

func Persistence(message string, cause error) *Error {
	return Wrap(KindPersistence, message, cause)
}

// KindOf walks the chain and returns the kind of the outermost *Error,
// or KindUnknown when the error did not originate in a domain service.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// MessageOf returns the human-readable message of the outermost *Error.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
