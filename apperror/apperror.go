// Package apperror defines a centralized system for application-specific errors.
// Every failure surfaced to calling code is an *AppError carrying a category,
// a user-facing message, and optionally the underlying error and the HTTP
// status that produced it. This keeps error handling consistent across the
// session, store, and transport layers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is an enumeration for the categories of client errors.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// ConfigError represents an error related to application configuration
	ConfigError
	// InvalidCredentialsError represents a rejected login attempt
	InvalidCredentialsError
	// DuplicateEmailError represents a signup conflict on the email address
	DuplicateEmailError
	// ValidationError represents an input validation error
	ValidationError
	// UnauthenticatedError represents an operation attempted with no token
	UnauthenticatedError
	// SessionExpiredError represents a 401 received mid-session
	SessionExpiredError
	// NotFoundError represents a resource not found on the server
	NotFoundError
	// NetworkError represents a transport failure or any other non-2xx response
	NetworkError
	// StorageError represents a failure reading or writing persisted client state
	StorageError
	// InternalError represents an unexpected internal failure
	InternalError
)

// AppError is the custom error type for the application.
// Status holds the HTTP status code of the response that produced the error,
// or 0 when the error originated locally.
type AppError struct {
	Type    ErrorType
	Message string
	Status  int
	Err     error // Underlying error
}

// Error returns the string representation of the error, satisfying the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, allowing errors.Is and errors.As to
// inspect the chain of wrapped errors.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError. This is the generic constructor; the
// per-type constructors below are preferred where they apply.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// NewInvalidCredentialsError creates a new InvalidCredentialsError
func NewInvalidCredentialsError(message string, underlyingError error) *AppError {
	return NewAppError(InvalidCredentialsError, message, underlyingError)
}

// NewDuplicateEmailError creates a new DuplicateEmailError
func NewDuplicateEmailError(message string, underlyingError error) *AppError {
	return NewAppError(DuplicateEmailError, message, underlyingError)
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, underlyingError error) *AppError {
	return NewAppError(ValidationError, message, underlyingError)
}

// NewUnauthenticatedError creates a new UnauthenticatedError
func NewUnauthenticatedError(message string, underlyingError error) *AppError {
	return NewAppError(UnauthenticatedError, message, underlyingError)
}

// NewSessionExpiredError creates a new SessionExpiredError
func NewSessionExpiredError(message string, underlyingError error) *AppError {
	return NewAppError(SessionExpiredError, message, underlyingError)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(message string, underlyingError error) *AppError {
	return NewAppError(NetworkError, message, underlyingError)
}

// NewStorageError creates a new StorageError
func NewStorageError(message string, underlyingError error) *AppError {
	return NewAppError(StorageError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// FromStatus normalizes a non-2xx HTTP response into an AppError.
// 401 maps to SessionExpiredError; 404 keeps its own category so callers can
// distinguish missing resources from server trouble; everything else is a
// NetworkError.
func FromStatus(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	var errType ErrorType
	switch status {
	case http.StatusUnauthorized:
		errType = SessionExpiredError
	case http.StatusNotFound:
		errType = NotFoundError
	default:
		errType = NetworkError
	}
	return &AppError{
		Type:    errType,
		Message: message,
		Status:  status,
	}
}

// FromError attempts to convert a generic error to an *AppError.
// It returns the *AppError and true if successful, otherwise nil and false.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// StatusOf returns the HTTP status that produced err, or 0 if err did not
// originate from an HTTP response.
func StatusOf(err error) int {
	if ae, ok := FromError(err); ok {
		return ae.Status
	}
	return 0
}

// isType reports whether an error in the chain is an AppError of the given type.
func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsInvalidCredentials checks if an error is an InvalidCredentials error
func IsInvalidCredentials(err error) bool {
	return isType(err, InvalidCredentialsError)
}

// IsDuplicateEmail checks if an error is a DuplicateEmail error
func IsDuplicateEmail(err error) bool {
	return isType(err, DuplicateEmailError)
}

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool {
	return isType(err, ValidationError)
}

// IsUnauthenticated checks if an error is an Unauthenticated error
func IsUnauthenticated(err error) bool {
	return isType(err, UnauthenticatedError)
}

// IsSessionExpired checks if an error is a SessionExpired error
func IsSessionExpired(err error) bool {
	return isType(err, SessionExpiredError)
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return isType(err, NotFoundError)
}

// IsNetworkError checks if an error is a Network error
func IsNetworkError(err error) bool {
	return isType(err, NetworkError)
}

// IsStorageError checks if an error is a Storage error
func IsStorageError(err error) bool {
	return isType(err, StorageError)
}
