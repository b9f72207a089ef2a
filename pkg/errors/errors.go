package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/smartinventory/smartinventory-backend/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternal           = errors.New("internal server error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInUse              = errors.New("resource in use")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"` // Parameters for i18n interpolation
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize returns a localized version of the error message
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, e.Params)
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewWithKey creates a new AppError whose message comes from the i18n catalogue
func NewWithKey(sentinel error, code string, messageKey string, statusCode int, params map[string]string) *AppError {
	return &AppError{
		Err:        sentinel,
		Code:       code,
		Message:    i18n.T(messageKey, params),
		MessageKey: messageKey,
		Params:     params,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

// NotFound takes an i18n resource key such as "item" or "location".
func NotFound(resource string) *AppError {
	name := i18n.T("resources." + resource)
	return NewWithKey(ErrNotFound, "NOT_FOUND", "errors.not_found", http.StatusNotFound,
		map[string]string{"resource": name})
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		MessageKey: "errors.unauthorized",
		StatusCode: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
		MessageKey: "errors.forbidden",
		StatusCode: http.StatusForbidden,
	}
}

// BadRequest carries a literal message; it is not re-localized.
func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// BadRequestKey is a 400 whose message comes from the i18n catalogue.
func BadRequestKey(messageKey string, params map[string]string) *AppError {
	return NewWithKey(ErrBadRequest, "BAD_REQUEST", messageKey, http.StatusBadRequest, params)
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		MessageKey: "errors.conflict",
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		MessageKey: "errors.validation_failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func InvalidCredentials() *AppError {
	return NewWithKey(ErrInvalidCredentials, "INVALID_CREDENTIALS", "errors.invalid_credentials",
		http.StatusUnauthorized, nil)
}

func TokenExpired() *AppError {
	return NewWithKey(ErrTokenExpired, "TOKEN_EXPIRED", "errors.token_expired", http.StatusUnauthorized, nil)
}

func TokenInvalid() *AppError {
	return NewWithKey(ErrTokenInvalid, "TOKEN_INVALID", "errors.token_invalid", http.StatusUnauthorized, nil)
}

// Inventory error constructors

// InsufficientStock is returned when a stock-out would drive quantity negative.
func InsufficientStock(current, requested int, unit string) *AppError {
	return NewWithKey(ErrInsufficientStock, "INSUFFICIENT_STOCK", "errors.insufficient_stock",
		http.StatusBadRequest, map[string]string{
			"current":   strconv.Itoa(current),
			"requested": strconv.Itoa(requested),
			"unit":      unit,
		})
}

// LocationDepthExceeded is returned when a location would be nested below level 3.
func LocationDepthExceeded() *AppError {
	return NewWithKey(ErrBadRequest, "LOCATION_DEPTH_EXCEEDED", "errors.location_depth_exceeded",
		http.StatusBadRequest, nil)
}

// InUse is returned when deleting something that is still referenced.
// messageKey selects the wording, count is the number of references.
func InUse(messageKey string, count int) *AppError {
	return NewWithKey(ErrInUse, "IN_USE", messageKey, http.StatusBadRequest,
		map[string]string{"count": strconv.Itoa(count)})
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
