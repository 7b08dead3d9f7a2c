package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DisasterStatusActive    = "active"
	DisasterStatusContained = "contained"
	DisasterStatusResolved  = "resolved"

	DefaultAffectedRadius = 5000.0 // meters
)

var (
	DisasterTypes    = []string{"Flood", "Fire", "Earthquake", "Cyclone", "Landslide", "Tsunami", "Drought"}
	SeverityLevels   = []string{"critical", "warning", "watch"}
	DisasterStatuses = []string{DisasterStatusActive, DisasterStatusContained, DisasterStatusResolved}
)

type Disaster struct {
	ID             uuid.UUID `json:"_id"`
	Type           string    `json:"type"`
	Severity       string    `json:"severity"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       GeoPoint  `json:"location"`
	AffectedRadius float64   `json:"affectedRadius"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CreateDisasterRequest struct {
	Type           string        `json:"type"`
	Severity       string        `json:"severity"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Location       LocationInput `json:"location"`
	AffectedRadius *float64      `json:"affectedRadius"`
	Status         string        `json:"status"`
}
