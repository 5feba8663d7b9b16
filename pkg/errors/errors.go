package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal error")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrSyncTimeout    = errors.New("sync timed out")
)

// AppError represents a structured application error with HTTP status mapping.
// Data carries free-form structured context (sync stage, provider, elapsed
// duration) that is returned to API callers and persisted with sync state.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Status  int            `json:"-"`
	Err     error          `json:"-"`
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

// WithData attaches structured context to the error and returns it.
func (e *AppError) WithData(data map[string]any) *AppError {
	e.Data = data
	return e
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

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error. Webhook signature failures surface
// through this constructor; it is the only non-success outcome a webhook
// endpoint may return.
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

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
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

// ServiceUnavailable creates a 503 error.
func ServiceUnavailable(message string) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// SyncInProgress creates a 409 error for a sync attempt while another run
// is still active. Data should carry sync_started_at and elapsed duration.
func SyncInProgress(message string, data map[string]any) *AppError {
	return &AppError{
		Code:    "SYNC_IN_PROGRESS",
		Message: message,
		Data:    data,
		Status:  http.StatusConflict,
		Err:     ErrSyncInProgress,
	}
}

// SyncTimeout creates a 408 error for a sync run that exceeded the
// staleness threshold.
func SyncTimeout(message string, data map[string]any) *AppError {
	return &AppError{
		Code:    "SYNC_TIMEOUT",
		Message: message,
		Data:    data,
		Status:  http.StatusRequestTimeout,
		Err:     ErrSyncTimeout,
	}
}

// SyncProviderError creates a 503 error for a provider-side sync failure.
func SyncProviderError(message string, data map[string]any) *AppError {
	return &AppError{
		Code:    "SYNC_PROVIDER_ERROR",
		Message: message,
		Data:    data,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// SyncFailed creates a 500 error for an unclassified sync failure.
func SyncFailed(message string, data map[string]any) *AppError {
	return &AppError{
		Code:    "SYNC_FAILED",
		Message: message,
		Data:    data,
		Status:  http.StatusInternalServerError,
		Err:     ErrInternal,
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
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict), errors.Is(err, ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrSyncTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
