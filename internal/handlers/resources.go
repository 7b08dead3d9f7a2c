package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"disaster-bot/internal/models"
	"disaster-bot/internal/repository"
)

const (
	defaultNearbyRadius = 10000
	minNearbyRadius     = 100
	maxNearbyRadius     = 100000
)

type resourceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error)
	ListShelters(ctx context.Context) ([]*models.Resource, error)
	Nearby(ctx context.Context, lat, lng, radius float64, resourceType string) ([]*models.Resource, error)
	UpdateCapacity(ctx context.Context, res *models.Resource) error
}

type ResourceHandler struct {
	resourceRepo resourceRepository
}

func NewResourceHandler(resourceRepo resourceRepository) *ResourceHandler {
	return &ResourceHandler{resourceRepo: resourceRepo}
}

// Shelters handles GET /api/v1/resources/shelters.
func (h *ResourceHandler) Shelters(w http.ResponseWriter, r *http.Request) {
	shelters, err := h.resourceRepo.ListShelters(r.Context())
	if err != nil {
		log.Printf("[Resources] Shelters error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve shelters.")
		return
	}
	writeResources(w, shelters)
}

// Nearby handles GET /api/v1/resources/nearby.
func (h *ResourceHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := &validator{}
	lat := v.queryNumber(q, "lat", 0, true, false, -90, 90)
	lng := v.queryNumber(q, "lng", 0, true, false, -180, 180)
	radius := v.queryNumber(q, "radius", defaultNearbyRadius, false, true, minNearbyRadius, maxNearbyRadius)
	resourceType := v.queryEnum(q, "type", models.ResourceTypes)
	if !v.ok() {
		writeValidationError(w, v.issues)
		return
	}

	resources, err := h.resourceRepo.Nearby(r.Context(), lat, lng, radius, resourceType)
	if err != nil {
		log.Printf("[Resources] Nearby error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve nearby resources.")
		return
	}
	writeResources(w, resources)
}

// UpdateCapacity handles PUT /api/v1/operator/resources/{id}/capacity.
func (h *ResourceHandler) UpdateCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeValidationError(w, []models.ValidationIssue{{Path: "id", Message: "Invalid uuid"}})
		return
	}

	var req models.UpdateCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []models.ValidationIssue{decodeIssue(err)})
		return
	}
	if req.Current == nil {
		writeValidationError(w, []models.ValidationIssue{{Path: "current", Message: "Required"}})
		return
	}

	res, err := h.resourceRepo.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Resource not found.")
		return
	}
	if err != nil {
		log.Printf("[Resources] GetByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve resource.")
		return
	}

	if err := res.SetCapacity(*req.Current, req.Total); err != nil {
		writeValidationError(w, []models.ValidationIssue{{Path: "current", Message: err.Error()}})
		return
	}

	if err := h.resourceRepo.UpdateCapacity(r.Context(), res); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Resource not found.")
			return
		}
		log.Printf("[Resources] UpdateCapacity error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update resource.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"resource": res})
}

func writeResources(w http.ResponseWriter, resources []*models.Resource) {
	if resources == nil {
		resources = []*models.Resource{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resources": resources})
}
