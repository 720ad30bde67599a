package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/validation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondStandardError writes a JSON error response in the standard envelope.
func respondStandardError(w http.ResponseWriter, status int, code, message, field string, details map[string]any) {
	respondJSON(w, status, &domain.StandardErrorResponse{
		Error: domain.StandardError{
			Code:    code,
			Message: message,
			Field:   field,
			Details: details,
		},
	})
}

// respondError writes a JSON error response without field information.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondStandardError(w, status, code, message, "", nil)
}

// handleError converts domain errors to HTTP errors.
func handleError(w http.ResponseWriter, err error) {
	var verrs validation.ValidationErrors
	var verr *validation.ValidationError
	switch {
	case errors.As(err, &verrs):
		respondValidationErrors(w, verrs)
	case errors.As(err, &verr):
		respondValidationError(w, verr.Field, verr.Value, verr.Message)
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, domain.ErrCodeResourceNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateKey):
		respondError(w, http.StatusConflict, domain.ErrCodeDuplicateKey, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		respondError(w, http.StatusForbidden, domain.ErrCodePermissionDenied, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrPersistence):
		respondError(w, http.StatusBadGateway, domain.ErrCodePersistenceFailure, err.Error())
	case errors.Is(err, domain.ErrNotReady):
		respondError(w, http.StatusServiceUnavailable, domain.ErrCodeNotReady, err.Error())
	case errors.Is(err, domain.ErrPreconditionFailed):
		respondError(w, http.StatusPreconditionFailed, domain.ErrCodePreconditionFailed, err.Error())
	default:
		logrus.WithError(err).Error("unhandled API error")
		respondError(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "internal server error")
	}
}

// decodeJSON decodes JSON from request body.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}

// respondInvalidBody writes the error for an undecodable request body.
func respondInvalidBody(w http.ResponseWriter) {
	respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body")
}

// generateID generates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// respondValidationError writes a JSON validation error response.
func respondValidationError(w http.ResponseWriter, field, value, message string) {
	respondStandardError(w, http.StatusBadRequest, domain.ErrCodeValidationError, message, field, map[string]any{
		"value": value,
	})
}

// respondValidationErrors writes a JSON response for multiple validation errors.
func respondValidationErrors(w http.ResponseWriter, errs validation.ValidationErrors) {
	field := ""
	if len(errs) > 0 {
		field = errs[0].Field
	}
	respondStandardError(w, http.StatusBadRequest, domain.ErrCodeValidationError, errs.Error(), field, map[string]any{
		"errors": errs,
	})
}
