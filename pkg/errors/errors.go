package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// --- Auth and session taxonomy ---

// MissingEmail creates a 400 error for an OAuth profile that carries no email.
func MissingEmail() *AppError {
	return &AppError{
		Code:    "MISSING_EMAIL",
		Message: "GitHub account must have a public email. Please update your GitHub settings.",
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// RegistrationExpired creates a 400 error for a lapsed or already-consumed signup token.
func RegistrationExpired() *AppError {
	return &AppError{
		Code:    "REGISTRATION_EXPIRED",
		Message: "registration session expired, please login again",
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// UsernameTaken creates a 409 error for an unavailable username.
func UsernameTaken(username string) *AppError {
	return &AppError{
		Code:    "USERNAME_TAKEN",
		Message: fmt.Sprintf("username %q is already taken", username),
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// InvalidToken creates a 401 error for a token that fails signature or expiry checks.
func InvalidToken() *AppError {
	return &AppError{
		Code:    "INVALID_TOKEN",
		Message: "invalid or expired token",
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// InvalidRefresh creates a 401 error for an unknown or expired refresh id.
func InvalidRefresh() *AppError {
	return &AppError{
		Code:    "INVALID_REFRESH",
		Message: "invalid or expired refresh token",
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// SessionRevoked creates a 401 error for a cryptographically valid token whose
// session record no longer exists in the store.
func SessionRevoked() *AppError {
	return &AppError{
		Code:    "SESSION_REVOKED",
		Message: "session expired or revoked",
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// StoreUnavailable creates a 503 error wrapping a session store I/O failure.
func StoreUnavailable(err error) *AppError {
	return &AppError{
		Code:    "STORE_UNAVAILABLE",
		Message: "session store unavailable",
		Status:  http.StatusServiceUnavailable,
		Err:     fmt.Errorf("%w: %w", ErrServiceUnavail, err),
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
