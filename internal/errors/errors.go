// Package errors provides custom error types for FoxOps
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all FoxOps errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// BaseError is the base implementation of AppError
type BaseError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"code"`
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) HTTPStatus() int {
	return e.StatusCode
}

func (e *BaseError) Code() string {
	return e.ErrorCode
}

// NotFoundError represents a resource not found error.
// Inactive and foreign-tenant records surface as the same error.
type NotFoundError struct {
	BaseError
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s not found", resource),
			StatusCode: http.StatusNotFound,
			ErrorCode:  "NOT_FOUND",
		},
		Resource: resource,
	}
}

// ValidationError carries every violation found, never just the first
type ValidationError struct {
	BaseError
	Details []string
}

func NewValidationError(message string, details ...string) *ValidationError {
	return &ValidationError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_ERROR",
		},
		Details: details,
	}
}

// Unauthorized reasons
const (
	ReasonMissing       = "missing"
	ReasonInvalidFormat = "invalid_format"
	ReasonInvalidKey    = "invalid_key"
	ReasonRevoked       = "revoked"
	ReasonExpired       = "expired"
	ReasonInvalidToken  = "invalid_token"
	ReasonNoCompany     = "no_company"
)

// UnauthorizedError represents an authentication error
type UnauthorizedError struct {
	BaseError
	Reason string
}

func NewUnauthorizedError(reason, message string) *UnauthorizedError {
	if message == "" {
		message = "authentication required"
	}
	return &UnauthorizedError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusUnauthorized,
			ErrorCode:  "UNAUTHORIZED",
		},
		Reason: reason,
	}
}

// PermissionDeniedError represents a permission denied error
type PermissionDeniedError struct {
	BaseError
	Action   string
	Resource string
}

func NewPermissionDeniedError(action, resource string) *PermissionDeniedError {
	return &PermissionDeniedError{
		BaseError: BaseError{
			Message:    "permission denied",
			StatusCode: http.StatusForbidden,
			ErrorCode:  "PERMISSION_DENIED",
		},
		Action:   action,
		Resource: resource,
	}
}

// InternalError represents an internal server error. The original is never sent to clients.
type InternalError struct {
	BaseError
	OriginalError error
}

func NewInternalError(original error) *InternalError {
	return &InternalError{
		BaseError: BaseError{
			Message:    "internal server error",
			StatusCode: http.StatusInternalServerError,
			ErrorCode:  "INTERNAL_ERROR",
		},
		OriginalError: original,
	}
}

func (e *InternalError) Unwrap() error {
	return e.OriginalError
}

// ConflictError represents a conflict error (e.g., duplicate)
type ConflictError struct {
	BaseError
	Resource string
}

func NewConflictError(resource string) *ConflictError {
	return &ConflictError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s already exists", resource),
			StatusCode: http.StatusConflict,
			ErrorCode:  "CONFLICT",
		},
		Resource: resource,
	}
}

// BadRequestError represents a generic bad request error
type BadRequestError struct {
	BaseError
}

func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "BAD_REQUEST",
		},
	}
}

// RateLimitedError is returned when an API key exceeds its limits
type RateLimitedError struct {
	BaseError
	Window string
}

func NewRateLimitedError(window string) *RateLimitedError {
	return &RateLimitedError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("rate limit exceeded (%s)", window),
			StatusCode: http.StatusTooManyRequests,
			ErrorCode:  "RATE_LIMITED",
		},
		Window: window,
	}
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

// ToHTTPError converts any error to an appropriate HTTP response
func ToHTTPError(err error) (int, map[string]interface{}) {
	if err == nil {
		return http.StatusOK, nil
	}

	var ve *ValidationError
	if stderrors.As(err, &ve) {
		details := ve.Details
		if details == nil {
			details = []string{}
		}
		return ve.HTTPStatus(), map[string]interface{}{
			"error":   ve.Code(),
			"message": ve.Error(),
			"details": details,
		}
	}

	var ue *UnauthorizedError
	if stderrors.As(err, &ue) {
		return ue.HTTPStatus(), map[string]interface{}{
			"error":   ue.Code(),
			"message": ue.Error(),
			"reason":  ue.Reason,
		}
	}

	var ae AppError
	if stderrors.As(err, &ae) {
		return ae.HTTPStatus(), map[string]interface{}{
			"error":   ae.Code(),
			"message": ae.Error(),
		}
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError, map[string]interface{}{
		"error":   "INTERNAL_ERROR",
		"message": "internal server error",
	}
}
