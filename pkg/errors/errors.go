package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeValidation represents malformed or missing input
	ErrorTypeValidation ErrorType = "VALIDATION"
	// ErrorTypeAuthentication represents bad credentials or a missing session
	ErrorTypeAuthentication ErrorType = "AUTHENTICATION"
	// ErrorTypeAuthorization represents an insufficient role
	ErrorTypeAuthorization ErrorType = "AUTHORIZATION"
	// ErrorTypeConflict represents a uniqueness conflict
	ErrorTypeConflict ErrorType = "CONFLICT"
	// ErrorTypeNotFound represents a missing issue or user
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeLocationPermissionDenied represents a refused geolocation request
	ErrorTypeLocationPermissionDenied ErrorType = "LOCATION_PERMISSION_DENIED"
	// ErrorTypeLocationUnavailable represents a geolocation sensor with no fix
	ErrorTypeLocationUnavailable ErrorType = "LOCATION_UNAVAILABLE"
	// ErrorTypeLocationTimeout represents a geolocation request that ran out of time
	ErrorTypeLocationTimeout ErrorType = "LOCATION_TIMEOUT"
	// ErrorTypeTransport represents an unreachable or failing collaborator
	ErrorTypeTransport ErrorType = "TRANSPORT"
	// ErrorTypeRateLimited represents a caller over its submission quota
	ErrorTypeRateLimited ErrorType = "RATE_LIMITED"
	// ErrorTypeInternal represents internal errors
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// RedirectTo is set when the caller should send the user elsewhere
	// (for example to the login screen) instead of showing the error.
	RedirectTo string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{Type: ErrorTypeAuthentication, Message: message}
}

// NewLoginRequiredError creates an authentication error that asks the caller
// to redirect to the given authentication route.
func NewLoginRequiredError(redirectTo string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    "authentication required",
		RedirectTo: redirectTo,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(message string) *AppError {
	return &AppError{Type: ErrorTypeAuthorization, Message: message}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewLocationPermissionDeniedError creates a new geolocation permission error
func NewLocationPermissionDeniedError(message string) *AppError {
	return &AppError{Type: ErrorTypeLocationPermissionDenied, Message: message}
}

// NewLocationUnavailableError creates a new geolocation unavailable error
func NewLocationUnavailableError(message string) *AppError {
	return &AppError{Type: ErrorTypeLocationUnavailable, Message: message}
}

// NewLocationTimeoutError creates a new geolocation timeout error
func NewLocationTimeoutError(message string) *AppError {
	return &AppError{Type: ErrorTypeLocationTimeout, Message: message}
}

// NewTransportError creates a new transport error
func NewTransportError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeTransport, Message: message, Err: err}
}

// NewRateLimitedError creates a new rate limit error
func NewRateLimitedError(message string) *AppError {
	return &AppError{Type: ErrorTypeRateLimited, Message: message}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeInternal when err
// is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsLocationError reports whether err is one of the geolocation failures.
func IsLocationError(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeLocationPermissionDenied, ErrorTypeLocationUnavailable, ErrorTypeLocationTimeout:
		return err != nil
	}
	return false
}
