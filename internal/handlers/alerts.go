package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"disaster-bot/internal/models"
	"disaster-bot/internal/repository"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 100
	maxAlertMessage   = 500
)

type alertRepository interface {
	Create(ctx context.Context, a *models.Alert) error
	ListActive(ctx context.Context, now time.Time, limit int, alertType string) ([]*models.Alert, error)
}

type alertPublisher interface {
	Publish(ctx context.Context, alert *models.Alert) error
}

type AlertHandler struct {
	alertRepo alertRepository
	publisher alertPublisher
	now       func() time.Time
}

func NewAlertHandler(alertRepo alertRepository, publisher alertPublisher) *AlertHandler {
	return &AlertHandler{
		alertRepo: alertRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

// ListActive handles GET /api/v1/alerts/active.
func (h *AlertHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := &validator{}
	limit := v.queryNumber(q, "limit", defaultAlertLimit, false, true, 1, maxAlertLimit)
	alertType := v.queryEnum(q, "type", models.AlertTypes)
	if !v.ok() {
		writeValidationError(w, v.issues)
		return
	}

	alerts, err := h.alertRepo.ListActive(r.Context(), h.now(), int(limit), alertType)
	if err != nil {
		log.Printf("[Alerts] ListActive error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve alerts.")
		return
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

// Create handles POST /api/v1/operator/alerts and pushes the alert to the
// live feed.
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []models.ValidationIssue{decodeIssue(err)})
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	req.Source = strings.TrimSpace(req.Source)

	v := &validator{}
	v.enum("type", req.Type, models.AlertTypes)
	v.stringLen("message", req.Message, 1, maxAlertMessage)
	now := h.now()
	switch {
	case req.ExpiresAt == nil:
		v.add("expiresAt", "Required")
	case !req.ExpiresAt.After(now):
		v.add("expiresAt", "Must be in the future")
	}
	if !v.ok() {
		writeValidationError(w, v.issues)
		return
	}

	alert := &models.Alert{
		Type:       req.Type,
		Message:    req.Message,
		Source:     req.Source,
		DisasterID: req.DisasterID,
		ExpiresAt:  req.ExpiresAt.UTC(),
	}
	if err := h.alertRepo.Create(r.Context(), alert); err != nil {
		if errors.Is(err, repository.ErrUnknownDisaster) {
			writeValidationError(w, []models.ValidationIssue{{Path: "disasterId", Message: "Disaster not found"}})
			return
		}
		log.Printf("[Alerts] Create error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create alert.")
		return
	}

	if err := h.publisher.Publish(r.Context(), alert); err != nil {
		log.Printf("[Alerts] publish %s failed: %v", alert.ID, err)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"alert": alert})
}
