package domain

import "errors"

// Common errors used throughout the application.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPermissionDenied   = errors.New("permission denied: catalog editing requires an editor role")
	ErrPersistence        = errors.New("persistence failure")
	ErrNotReady           = errors.New("catalog not ready")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrPreconditionFailed = errors.New("precondition failed")
)

// Error codes for standardized API error responses.
const (
	ErrCodeResourceNotFound   = "RESOURCE_NOT_FOUND"
	ErrCodeDuplicateKey       = "DUPLICATE_KEY"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodePermissionDenied   = "PERMISSION_DENIED"
	ErrCodeValidationError    = "VALIDATION_ERROR"
	ErrCodePreconditionFailed = "PRECONDITION_FAILED"
	ErrCodePersistenceFailure = "PERSISTENCE_FAILURE"
	ErrCodeNotReady           = "CATALOG_NOT_READY"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// StandardError represents a standardized error response from the API.
type StandardError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// StandardErrorResponse wraps a StandardError for JSON responses.
type StandardErrorResponse struct {
	Error StandardError `json:"error"`
}
