package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ResourceTypeShelter  = "shelter"
	ResourceTypeHospital = "hospital"
	ResourceTypeFoodBank = "food_bank"
	ResourceTypePolice   = "police"

	ResourceStatusOpen   = "open"
	ResourceStatusFull   = "full"
	ResourceStatusClosed = "closed"

	DefaultCapacityUnit = "people"
)

var (
	ResourceTypes    = []string{ResourceTypeShelter, ResourceTypeHospital, ResourceTypeFoodBank, ResourceTypePolice}
	ResourceStatuses = []string{ResourceStatusOpen, ResourceStatusFull, ResourceStatusClosed}
)

type Capacity struct {
	Total   int    `json:"total"`
	Current int    `json:"current"`
	Unit    string `json:"unit"`
}

type Contact struct {
	Phone  string `json:"phone,omitempty"`
	Person string `json:"person,omitempty"`
}

type Resource struct {
	ID        uuid.UUID `json:"_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Location  GeoPoint  `json:"location"`
	Status    string    `json:"status"`
	Capacity  Capacity  `json:"capacity"`
	Contact   Contact   `json:"contact"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Distance is set only on nearby queries, in meters.
	Distance *float64 `json:"distance,omitempty"`
}

type UpdateCapacityRequest struct {
	Current *int `json:"current"`
	Total   *int `json:"total"`
}

// SetCapacity applies a capacity update and moves an open resource to full
// (and back) as occupancy crosses the total. Closed resources stay closed.
func (r *Resource) SetCapacity(current int, total *int) error {
	newTotal := r.Capacity.Total
	if total != nil {
		newTotal = *total
	}
	if newTotal < 0 || current < 0 {
		return fmt.Errorf("capacity values must not be negative")
	}
	if current > newTotal {
		return fmt.Errorf("current occupancy %d exceeds total capacity %d", current, newTotal)
	}

	r.Capacity.Total = newTotal
	r.Capacity.Current = current

	switch r.Status {
	case ResourceStatusOpen:
		if current == newTotal {
			r.Status = ResourceStatusFull
		}
	case ResourceStatusFull:
		if current < newTotal {
			r.Status = ResourceStatusOpen
		}
	}
	return nil
}

// ShelterStats aggregates non-closed shelters.
type ShelterStats struct {
	TotalShelters    int
	TotalCapacity    int
	CurrentOccupancy int
}

type StatsSummary struct {
	ActiveHazards    int    `json:"activeHazards"`
	SheltersOpen     int    `json:"sheltersOpen"`
	ShelterOccupancy string `json:"shelterOccupancy"`
	PeopleAssisted   int    `json:"peopleAssisted"`
	ActiveAlerts     int    `json:"activeAlerts"`
	SystemStatus     string `json:"systemStatus"`
}
