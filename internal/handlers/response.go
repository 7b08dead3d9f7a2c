package handlers

import (
	"encoding/json"
	"net/http"

	"disaster-bot/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

func writeValidationError(w http.ResponseWriter, issues []models.ValidationIssue) {
	writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
		Error:   "Validation failed",
		Details: issues,
	})
}
