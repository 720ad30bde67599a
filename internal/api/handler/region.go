package handler

import (
	"net/http"

	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/go-chi/chi/v5"
)

// RegionHandler handles region endpoints.
type RegionHandler struct {
	store *catalog.Store
}

// NewRegionHandler creates a new RegionHandler.
func NewRegionHandler(store *catalog.Store) *RegionHandler {
	return &RegionHandler{store: store}
}

// List lists all regions.
func (h *RegionHandler) List(w http.ResponseWriter, r *http.Request) {
	regions, err := h.store.Regions()
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, regions)
}

// Create adds a region, optionally with countries and services attached.
func (h *RegionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.Region
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	if err := h.store.AddRegion(r.Context(), req); err != nil {
		handleError(w, err)
		return
	}

	region, err := h.store.Region(req.ID)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, region)
}

// Get gets a region by id.
func (h *RegionHandler) Get(w http.ResponseWriter, r *http.Request) {
	region, err := h.store.Region(chi.URLParam(r, "region_id"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, region)
}

// Update renames a region.
func (h *RegionHandler) Update(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "region_id")

	var req domain.UpdateRegionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	if err := h.store.UpdateRegion(r.Context(), regionID, req); err != nil {
		handleError(w, err)
		return
	}

	region, err := h.store.Region(regionID)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, region)
}

// Delete removes a region and everything below it.
func (h *RegionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRegion(r.Context(), chi.URLParam(r, "region_id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
