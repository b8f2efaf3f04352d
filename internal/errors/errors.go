// Package errors provides standardized error handling for the Glimpse client core.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code for the client core.
type ErrorCode string

const (
	// Validation errors
	GLIMPSE_VALIDATION       ErrorCode = "GLIMPSE_VALIDATION"       // General validation error
	GLIMPSE_BAD_REQUEST      ErrorCode = "GLIMPSE_BAD_REQUEST"      // Bad request
	GLIMPSE_INVALID_LOCATION ErrorCode = "GLIMPSE_INVALID_LOCATION" // Media URI outside known library areas
	GLIMPSE_CAPTION_LENGTH   ErrorCode = "GLIMPSE_CAPTION_LENGTH"   // Caption exceeds the bounded length
	GLIMPSE_COMMENT_LENGTH   ErrorCode = "GLIMPSE_COMMENT_LENGTH"   // Comment exceeds the bounded length
	GLIMPSE_MEDIA_KIND       ErrorCode = "GLIMPSE_MEDIA_KIND"       // Unknown media kind

	// Resource errors
	GLIMPSE_NOT_FOUND ErrorCode = "GLIMPSE_NOT_FOUND" // Resource not found
	GLIMPSE_CONFLICT  ErrorCode = "GLIMPSE_CONFLICT"  // Resource conflict

	// Storage and upstream errors
	GLIMPSE_STORAGE  ErrorCode = "GLIMPSE_STORAGE"  // Local sidecar or media file I/O failed
	GLIMPSE_UPSTREAM ErrorCode = "GLIMPSE_UPSTREAM" // Backend API call failed
	GLIMPSE_PARTIAL  ErrorCode = "GLIMPSE_PARTIAL"  // Upload succeeded but local bookkeeping failed

	// Server errors
	GLIMPSE_INTERNAL    ErrorCode = "GLIMPSE_INTERNAL"    // Internal error
	GLIMPSE_UNAVAILABLE ErrorCode = "GLIMPSE_UNAVAILABLE" // Service unavailable
)

// Error represents a standardized error response.
type Error struct {
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlationId"`
	Details       interface{} `json:"details,omitempty"`
	HTTPStatus    int         `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// NewWithDetails creates a new Error with the specified code, message, and details.
func NewWithDetails(code ErrorCode, message string, correlationID string, details interface{}) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		Details:       details,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// httpStatusCodeForCode maps error codes to HTTP status codes.
func httpStatusCodeForCode(code ErrorCode) int {
	switch code {
	case GLIMPSE_VALIDATION, GLIMPSE_BAD_REQUEST, GLIMPSE_INVALID_LOCATION,
		GLIMPSE_CAPTION_LENGTH, GLIMPSE_COMMENT_LENGTH, GLIMPSE_MEDIA_KIND:
		return http.StatusBadRequest
	case GLIMPSE_NOT_FOUND:
		return http.StatusNotFound
	case GLIMPSE_CONFLICT:
		return http.StatusConflict
	case GLIMPSE_UPSTREAM:
		return http.StatusBadGateway
	case GLIMPSE_PARTIAL:
		// The upload half succeeded; callers must be able to tell this
		// apart from a total failure when deciding what to retry.
		return http.StatusBadGateway
	case GLIMPSE_UNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
