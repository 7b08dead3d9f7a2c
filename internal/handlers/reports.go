package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"disaster-bot/internal/models"
	"disaster-bot/internal/repository"
)

type reportRepository interface {
	Create(ctx context.Context, rep *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type reportQueue interface {
	EnqueueReport(ctx context.Context, reportID uuid.UUID) error
}

type ReportHandler struct {
	reportRepo reportRepository
	queue      reportQueue
}

func NewReportHandler(reportRepo reportRepository, queue reportQueue) *ReportHandler {
	return &ReportHandler{reportRepo: reportRepo, queue: queue}
}

// Create handles POST /api/v1/reports and queues the report for triage.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []models.ValidationIssue{decodeIssue(err)})
		return
	}

	req.ReporterName = strings.TrimSpace(req.ReporterName)
	req.Description = strings.TrimSpace(req.Description)

	v := &validator{}
	v.stringLen("reporterName", req.ReporterName, 1, 100)
	v.enum("type", req.Type, models.ReportTypes)
	v.stringLen("description", req.Description, 1, 2000)
	lng, lat := v.coordinates("location.coordinates", req.Location)
	if req.ImageURL != nil {
		v.httpURL("imageUrl", *req.ImageURL)
	}
	if !v.ok() {
		writeValidationError(w, v.issues)
		return
	}

	report := &models.Report{
		ReporterName: req.ReporterName,
		Type:         req.Type,
		Description:  req.Description,
		Location:     models.NewPoint(lng, lat),
		ImageURL:     req.ImageURL,
	}
	if err := h.reportRepo.Create(r.Context(), report); err != nil {
		log.Printf("[Reports] Create error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to submit report.")
		return
	}

	if err := h.queue.EnqueueReport(r.Context(), report.ID); err != nil {
		log.Printf("[Reports] failed to queue report %s for triage: %v", report.ID, err)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Report submitted successfully.",
		"report":  report,
	})
}

// UpdateStatus handles PUT /api/v1/operator/reports/{id}/status.
func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeValidationError(w, []models.ValidationIssue{{Path: "id", Message: "Invalid uuid"}})
		return
	}

	var req models.UpdateReportStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []models.ValidationIssue{decodeIssue(err)})
		return
	}

	v := &validator{}
	v.enum("status", req.Status, models.ReportStatuses)
	if !v.ok() {
		writeValidationError(w, v.issues)
		return
	}

	if err := h.reportRepo.UpdateStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Report not found.")
			return
		}
		log.Printf("[Reports] UpdateStatus error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update report.")
		return
	}

	report, err := h.reportRepo.GetByID(r.Context(), id)
	if err != nil {
		log.Printf("[Reports] GetByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve report.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}
