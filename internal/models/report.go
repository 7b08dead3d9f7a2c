package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportTypeDamage          = "damage"
	ReportTypeSOS             = "SOS"
	ReportTypeResourceRequest = "resource_request"

	ReportStatusPending   = "pending"
	ReportStatusVerified  = "verified"
	ReportStatusDismissed = "dismissed"
)

var (
	ReportTypes    = []string{ReportTypeDamage, ReportTypeSOS, ReportTypeResourceRequest}
	ReportStatuses = []string{ReportStatusPending, ReportStatusVerified, ReportStatusDismissed}
)

type Report struct {
	ID           uuid.UUID `json:"_id"`
	ReporterName string    `json:"reporterName"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	Location     GeoPoint  `json:"location"`
	ImageURL     *string   `json:"imageUrl"`
	Status       string    `json:"status"`
	Upvotes      int       `json:"upvotes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateReportRequest struct {
	ReporterName string        `json:"reporterName"`
	Type         string        `json:"type"`
	Description  string        `json:"description"`
	Location     LocationInput `json:"location"`
	ImageURL     *string       `json:"imageUrl"`
}

type UpdateReportStatusRequest struct {
	Status string `json:"status"`
}
