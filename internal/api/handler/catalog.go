package handler

import (
	"net/http"

	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/bcnelson/pricing-catalog/internal/domain"
)

// CatalogHandler handles whole-catalog endpoints.
type CatalogHandler struct {
	store *catalog.Store
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(store *catalog.Store) *CatalogHandler {
	return &CatalogHandler{store: store}
}

// Get returns the whole tree with its ETag.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	regions, err := h.store.Regions()
	if err != nil {
		handleError(w, err)
		return
	}

	etag := h.store.ETag()
	SetETagHeader(w, etag)
	if CheckIfNoneMatch(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	respondJSON(w, http.StatusOK, regions)
}

// Status returns the lifecycle state, the last error and the tree size.
func (h *CatalogHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Status())
}

// Replace swaps the whole tree after validating it. Honours If-Match.
func (h *CatalogHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var regions []domain.Region
	if err := decodeJSON(r, &regions); err != nil {
		respondInvalidBody(w)
		return
	}

	if etag := h.store.ETag(); !CheckIfMatch(r, etag) {
		RespondPreconditionFailed(w, etag)
		return
	}

	if err := h.store.Replace(r.Context(), regions); err != nil {
		handleError(w, err)
		return
	}

	SetETagHeader(w, h.store.ETag())
	respondJSON(w, http.StatusOK, h.store.Status())
}

// Save persists the current tree. Honours If-Match so a client can save
// exactly the tree it reviewed.
func (h *CatalogHandler) Save(w http.ResponseWriter, r *http.Request) {
	if etag := h.store.ETag(); !CheckIfMatch(r, etag) {
		RespondPreconditionFailed(w, etag)
		return
	}

	if err := h.store.SaveChanges(r.Context()); err != nil {
		handleError(w, err)
		return
	}

	SetETagHeader(w, h.store.ETag())
	respondJSON(w, http.StatusOK, h.store.Status())
}

// Reset replaces the tree with the built-in catalog and persists it.
func (h *CatalogHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetToDefault(r.Context()); err != nil {
		handleError(w, err)
		return
	}

	SetETagHeader(w, h.store.ETag())
	respondJSON(w, http.StatusOK, h.store.Status())
}

// Reload discards unsaved edits by loading the stored document again.
func (h *CatalogHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reload(r.Context()); err != nil {
		handleError(w, err)
		return
	}

	SetETagHeader(w, h.store.ETag())
	respondJSON(w, http.StatusOK, h.store.Status())
}

// ClearError empties the store's error slot.
func (h *CatalogHandler) ClearError(w http.ResponseWriter, r *http.Request) {
	h.store.ClearError()
	w.WriteHeader(http.StatusNoContent)
}
