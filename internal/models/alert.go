package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AlertTypeCritical = "critical"
	AlertTypeWarning  = "warning"
	AlertTypeInfo     = "info"
	AlertTypeSuccess  = "success"

	DefaultAlertSource = "System"
)

var AlertTypes = []string{AlertTypeCritical, AlertTypeWarning, AlertTypeInfo, AlertTypeSuccess}

type Alert struct {
	ID         uuid.UUID  `json:"_id"`
	Type       string     `json:"type"`
	Message    string     `json:"message"`
	Source     string     `json:"source"`
	DisasterID *uuid.UUID `json:"disasterId"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type CreateAlertRequest struct {
	Type       string     `json:"type"`
	Message    string     `json:"message"`
	Source     string     `json:"source"`
	DisasterID *uuid.UUID `json:"disasterId"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}

// LiveEvent is the envelope pushed to live feed subscribers.
type LiveEvent struct {
	Type    string      `json:"type"` // "alert"
	Payload interface{} `json:"payload"`
}
