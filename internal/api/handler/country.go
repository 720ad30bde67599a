package handler

import (
	"net/http"

	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/validation"
	"github.com/go-chi/chi/v5"
)

// CountryHandler handles country endpoints.
type CountryHandler struct {
	store *catalog.Store
}

// NewCountryHandler creates a new CountryHandler.
func NewCountryHandler(store *catalog.Store) *CountryHandler {
	return &CountryHandler{store: store}
}

// List lists the countries of a region.
func (h *CountryHandler) List(w http.ResponseWriter, r *http.Request) {
	region, err := h.store.Region(chi.URLParam(r, "region_id"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, region.Countries)
}

// Create adds a country to a region.
func (h *CountryHandler) Create(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "region_id")

	var req domain.Country
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	if err := h.store.AddCountry(r.Context(), regionID, req); err != nil {
		handleError(w, err)
		return
	}

	country, err := h.store.Country(regionID, validation.NormalizeCountryCode(req.Code))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, country)
}

// Get gets a country by code.
func (h *CountryHandler) Get(w http.ResponseWriter, r *http.Request) {
	country, err := h.store.Country(chi.URLParam(r, "region_id"), chi.URLParam(r, "code"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, country)
}

// Update renames a country.
func (h *CountryHandler) Update(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "region_id")
	code := chi.URLParam(r, "code")

	var req domain.UpdateCountryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	if err := h.store.UpdateCountry(r.Context(), regionID, code, req); err != nil {
		handleError(w, err)
		return
	}

	country, err := h.store.Country(regionID, code)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, country)
}

// Delete removes a country and its services.
func (h *CountryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCountry(r.Context(), chi.URLParam(r, "region_id"), chi.URLParam(r, "code")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
