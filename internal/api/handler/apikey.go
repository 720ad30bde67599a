package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/bcnelson/pricing-catalog/internal/auth"
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/storage"
	"github.com/go-chi/chi/v5"
)

// APIKeyHandler handles API key endpoints.
type APIKeyHandler struct {
	store storage.Storage
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(store storage.Storage) *APIKeyHandler {
	return &APIKeyHandler{store: store}
}

// Create creates a new API key. Keys default to the viewer role.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAPIKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondValidationError(w, "name", req.Name, "name is required")
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleViewer
	}
	if !req.Role.Valid() {
		respondValidationError(w, "role", string(req.Role), "role must be one of admin, editor, viewer")
		return
	}

	key, err := auth.GenerateAPIKey()
	if err != nil {
		respondError(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "failed to generate API key")
		return
	}

	apiKey := &domain.APIKey{
		ID:        generateID(),
		Name:      req.Name,
		Role:      req.Role,
		KeyHash:   auth.HashAPIKey(key),
		KeyPrefix: auth.KeyPrefix(key),
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateAPIKey(r.Context(), apiKey); err != nil {
		handleError(w, err)
		return
	}

	resp := &domain.CreateAPIKeyResponse{
		ID:        apiKey.ID,
		Name:      apiKey.Name,
		Role:      apiKey.Role,
		Key:       key, // Only returned on creation
		KeyPrefix: apiKey.KeyPrefix,
		CreatedAt: apiKey.CreatedAt,
	}

	respondJSON(w, http.StatusCreated, resp)
}

// List lists all API keys (without the actual key values).
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAPIKeys(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	if keys == nil {
		keys = []*domain.APIKey{}
	}

	respondJSON(w, http.StatusOK, keys)
}

// Delete deletes an API key.
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAPIKey(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
