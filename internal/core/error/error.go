package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// SearchErrorMessage describes a failed call to the web search backend.
	SearchErrorMessage = "web search failed"
	// InitErrorMessage describes a collaborator that could not be initialised.
	// It is the only failure that aborts a run before the graph starts.
	InitErrorMessage = "collaborator initialisation failed"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapInit marks err as a collaborator initialisation failure for component.
func WrapInit(component string, err error) error {
	if err == nil {
		return nil
	}
	return New(fmt.Errorf("%s: %w", component, err), http.StatusServiceUnavailable, InitErrorMessage)
}

// WrapSearch maps a search backend failure to a bad gateway.
func WrapSearch(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, SearchErrorMessage)
}

// IsInit reports whether err is a collaborator initialisation failure.
func IsInit(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Message == InitErrorMessage
}

// StatusOf returns the HTTP status carried by err, or 500 when it has none.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
