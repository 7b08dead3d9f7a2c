package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"disaster-bot/internal/models"
)

type stubDisasterRepo struct {
	disasters []*models.Disaster
	err       error
	created   *models.Disaster
}

func (s *stubDisasterRepo) Create(ctx context.Context, d *models.Disaster) error {
	d.ID = uuid.New()
	s.created = d
	return s.err
}

func (s *stubDisasterRepo) ListActive(ctx context.Context) ([]*models.Disaster, error) {
	return s.disasters, s.err
}

func TestDisasterHandler_ListActive(t *testing.T) {
	h := NewDisasterHandler(&stubDisasterRepo{})
	rr := httptest.NewRecorder()
	h.ListActive(rr, httptest.NewRequest(http.MethodGet, "/api/v1/disasters/active", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != "{\"disasters\":[]}\n" {
		t.Errorf("expected empty list, got %s", got)
	}

	h = NewDisasterHandler(&stubDisasterRepo{err: errors.New("db down")})
	rr = httptest.NewRecorder()
	h.ListActive(rr, httptest.NewRequest(http.MethodGet, "/api/v1/disasters/active", nil))
	if got := decodeError(t, rr).Error; rr.Code != http.StatusInternalServerError || got != "Failed to retrieve disasters." {
		t.Fatalf("expected 500 'Failed to retrieve disasters.', got %d %q", rr.Code, got)
	}
}

func TestDisasterHandler_Create_Defaults(t *testing.T) {
	repo := &stubDisasterRepo{}
	h := NewDisasterHandler(repo)

	rr := httptest.NewRecorder()
	h.Create(rr, jsonRequest(t, http.MethodPost, "/api/v1/operator/disasters", map[string]interface{}{
		"type":     "Flood",
		"severity": "critical",
		"title":    "Brahmaputra flooding",
		"location": map[string]interface{}{"coordinates": []float64{91.7362, 26.1445}},
	}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	d := repo.created
	if d.Status != "active" || d.AffectedRadius != 5000 {
		t.Errorf("expected defaults active/5000, got %s/%v", d.Status, d.AffectedRadius)
	}
	if d.Location.Lng() != 91.7362 || d.Location.Lat() != 26.1445 {
		t.Errorf("unexpected location %+v", d.Location)
	}
}

func TestDisasterHandler_Create_Invalid(t *testing.T) {
	repo := &stubDisasterRepo{}
	h := NewDisasterHandler(repo)

	rr := httptest.NewRecorder()
	h.Create(rr, jsonRequest(t, http.MethodPost, "/api/v1/operator/disasters", map[string]interface{}{
		"type":           "Meteor",
		"severity":       "critical",
		"title":          "",
		"location":       map[string]interface{}{"coordinates": []float64{200, 26}},
		"affectedRadius": -1,
	}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	body := decodeError(t, rr)
	requireIssue(t, body, "type", "Invalid enum value")
	requireIssue(t, body, "title", "String must contain at least 1")
	requireIssue(t, body, "location.coordinates", "Coordinates must be [longitude, latitude]")
	requireIssue(t, body, "affectedRadius", "Number must be greater than or equal to 0")
	if repo.created != nil {
		t.Error("disaster should not be stored")
	}
}
