package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError. Handlers map kinds to HTTP status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindInvalidArgument
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindInvalidArgument:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case KindUpstream:
		return "UPSTREAM_FAILURE"
	default:
		return "INTERNAL_ERROR"
	}
}

// AppError is the base domain error type.
type AppError struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Code returns the wire code for the error kind.
func (e *AppError) Code() string { return e.Kind.String() }

// KindOf returns the Kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Kind: KindInvalidArgument, Message: msg}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func ErrTooManyRequests(msg string) *AppError {
	return &AppError{Kind: KindTooManyRequests, Message: msg}
}

func ErrUpstream(msg string, cause error) *AppError {
	return &AppError{Kind: KindUpstream, Message: msg, Cause: cause}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Kind: KindInternal, Message: msg, Cause: cause}
}
