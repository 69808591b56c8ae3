package apperror

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure classes the services are allowed to
// surface. Controllers never branch on messages, only on kinds.
type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"
	KindUnauthenticated    Kind = "unauthenticated"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindUpstream           Kind = "upstream_error"
	KindMalformedResponse  Kind = "malformed_response"
)

type AppError struct {
	Kind    Kind
	Message string
	// Hint is advisory diagnostic text (e.g. upstream status guidance).
	// It is shown to humans and must never drive control flow.
	Hint string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func InvalidInput(message string) *AppError {
	return New(KindInvalidInput, message)
}

func Unauthenticated(message string) *AppError {
	return New(KindUnauthenticated, message)
}

func Forbidden(message string) *AppError {
	return New(KindForbidden, message)
}

func NotFound(message string) *AppError {
	return New(KindNotFound, message)
}

func StorageUnavailable(err error) *AppError {
	return Wrap(KindStorageUnavailable, "storage is unavailable", err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
