package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/bcnelson/pricing-catalog/internal/domain"
)

// writeError writes a standard JSON error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&domain.StandardErrorResponse{
		Error: domain.StandardError{Code: code, Message: message},
	})
}
