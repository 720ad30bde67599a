package handler

import (
	"net/http"

	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ServiceHandler handles payment service endpoints.
type ServiceHandler struct {
	store *catalog.Store
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(store *catalog.Store) *ServiceHandler {
	return &ServiceHandler{store: store}
}

// List lists the services offered in a country.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	country, err := h.store.Country(chi.URLParam(r, "region_id"), chi.URLParam(r, "code"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, country.Services)
}

// Create adds a service to a country.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "region_id")
	code := chi.URLParam(r, "code")

	var req domain.Service
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	if err := h.store.AddService(r.Context(), regionID, code, req); err != nil {
		handleError(w, err)
		return
	}

	service, err := h.store.Service(regionID, code, req.ID)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, service)
}

// Get gets a service by id.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	service, err := h.store.Service(chi.URLParam(r, "region_id"), chi.URLParam(r, "code"), chi.URLParam(r, "service_id"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, service)
}

// Update merges the supplied fields into a service.
func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "region_id")
	code := chi.URLParam(r, "code")
	serviceID := chi.URLParam(r, "service_id")

	var req domain.UpdateServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	if err := h.store.UpdateService(r.Context(), regionID, code, serviceID, req); err != nil {
		handleError(w, err)
		return
	}

	service, err := h.store.Service(regionID, code, serviceID)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, service)
}

// Delete removes a service.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteService(r.Context(), chi.URLParam(r, "region_id"), chi.URLParam(r, "code"), chi.URLParam(r, "service_id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
