package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"disaster-bot/internal/models"
)

type disasterRepository interface {
	Create(ctx context.Context, d *models.Disaster) error
	ListActive(ctx context.Context) ([]*models.Disaster, error)
}

type DisasterHandler struct {
	disasterRepo disasterRepository
}

func NewDisasterHandler(disasterRepo disasterRepository) *DisasterHandler {
	return &DisasterHandler{disasterRepo: disasterRepo}
}

// ListActive handles GET /api/v1/disasters/active.
func (h *DisasterHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	disasters, err := h.disasterRepo.ListActive(r.Context())
	if err != nil {
		log.Printf("[Disasters] ListActive error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve disasters.")
		return
	}
	if disasters == nil {
		disasters = []*models.Disaster{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"disasters": disasters})
}

// Create handles POST /api/v1/operator/disasters.
func (h *DisasterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDisasterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []models.ValidationIssue{decodeIssue(err)})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Status == "" {
		req.Status = models.DisasterStatusActive
	}
	radius := models.DefaultAffectedRadius
	if req.AffectedRadius != nil {
		radius = *req.AffectedRadius
	}

	v := &validator{}
	v.enum("type", req.Type, models.DisasterTypes)
	v.enum("severity", req.Severity, models.SeverityLevels)
	v.stringLen("title", req.Title, 1, 200)
	v.stringLen("description", req.Description, 0, 2000)
	lng, lat := v.coordinates("location.coordinates", req.Location)
	if radius < 0 {
		v.add("affectedRadius", "Number must be greater than or equal to 0")
	}
	v.enum("status", req.Status, models.DisasterStatuses)
	if !v.ok() {
		writeValidationError(w, v.issues)
		return
	}

	d := &models.Disaster{
		Type:           req.Type,
		Severity:       req.Severity,
		Title:          req.Title,
		Description:    req.Description,
		Location:       models.NewPoint(lng, lat),
		AffectedRadius: radius,
		Status:         req.Status,
	}
	if err := h.disasterRepo.Create(r.Context(), d); err != nil {
		log.Printf("[Disasters] Create error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create disaster.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"disaster": d})
}
