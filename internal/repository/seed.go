package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"disaster-bot/internal/models"
)

// SeedResult reports how many rows Seed inserted per table.
type SeedResult struct {
	Disasters int
	Alerts    int
	Resources int
}

// Seed wipes every table and loads the reference dataset of Indian
// disasters, alerts and relief resources. The first two alerts are linked to
// the first disaster.
func Seed(ctx context.Context, pool *pgxpool.Pool, now time.Time) (*SeedResult, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE reports, alerts, resources, disasters"); err != nil {
		return nil, fmt.Errorf("clear tables: %w", err)
	}

	disasters := SeedDisasters()
	for _, d := range disasters {
		d.ID = uuid.New()
		if _, err := tx.Exec(ctx, `INSERT INTO disasters (id, type, severity, title, description, longitude, latitude, affected_radius, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			d.ID, d.Type, d.Severity, d.Title, d.Description,
			d.Location.Lng(), d.Location.Lat(), d.AffectedRadius, d.Status); err != nil {
			return nil, fmt.Errorf("insert disaster %q: %w", d.Title, err)
		}
	}

	alerts := SeedAlerts(now)
	for i, a := range alerts {
		a.ID = uuid.New()
		if i < 2 && len(disasters) > 0 {
			id := disasters[0].ID
			a.DisasterID = &id
		}
		if err := insertAlert(ctx, tx, a); err != nil {
			return nil, err
		}
	}

	resources := SeedResources()
	for _, res := range resources {
		res.ID = uuid.New()
		if _, err := tx.Exec(ctx, `INSERT INTO resources (id, name, type, longitude, latitude, status,
				capacity_total, capacity_current, capacity_unit, contact_phone, contact_person, tags)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			res.ID, res.Name, res.Type, res.Location.Lng(), res.Location.Lat(), res.Status,
			res.Capacity.Total, res.Capacity.Current, res.Capacity.Unit,
			res.Contact.Phone, res.Contact.Person, res.Tags); err != nil {
			return nil, fmt.Errorf("insert resource %q: %w", res.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit seed: %w", err)
	}

	return &SeedResult{Disasters: len(disasters), Alerts: len(alerts), Resources: len(resources)}, nil
}

func insertAlert(ctx context.Context, tx pgx.Tx, a *models.Alert) error {
	_, err := tx.Exec(ctx, `INSERT INTO alerts (id, type, message, source, disaster_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Type, a.Message, a.Source, a.DisasterID, a.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert alert %q: %w", a.Message, err)
	}
	return nil
}

func SeedDisasters() []*models.Disaster {
	return []*models.Disaster{
		{
			Type:           "Flood",
			Severity:       "critical",
			Title:          "Flash Flood Warning — Brahmaputra Basin, Assam",
			Description:    "Severe flooding in Kamrup and Nagaon districts. Water levels 2m above danger mark. Over 50 villages submerged.",
			Location:       models.NewPoint(91.7362, 26.1445),
			AffectedRadius: 25000,
			Status:         models.DisasterStatusActive,
		},
		{
			Type:           "Earthquake",
			Severity:       "warning",
			Title:          "Seismic Activity Detected — Kutch Region, Gujarat",
			Description:    "4.8 magnitude tremor recorded at 15km depth. Aftershock monitoring underway.",
			Location:       models.NewPoint(69.8597, 23.2420),
			AffectedRadius: 15000,
			Status:         models.DisasterStatusActive,
		},
		{
			Type:           "Cyclone",
			Severity:       "critical",
			Title:          "Cyclone Biparjoy — Odisha Coastal Belt",
			Description:    "Category 3 cyclone approaching Puri coast. Winds expected to reach 130 km/h. Mandatory evacuation issued.",
			Location:       models.NewPoint(85.8315, 19.8135),
			AffectedRadius: 50000,
			Status:         models.DisasterStatusActive,
		},
		{
			Type:           "Landslide",
			Severity:       "warning",
			Title:          "Landslide Risk — Chamoli District, Uttarakhand",
			Description:    "Heavy rainfall has destabilized slopes near Joshimath. Roads blocked. 3 villages isolated.",
			Location:       models.NewPoint(79.5636, 30.5562),
			AffectedRadius: 8000,
			Status:         models.DisasterStatusActive,
		},
	}
}

func SeedAlerts(now time.Time) []*models.Alert {
	in := func(h int) time.Time { return now.Add(time.Duration(h) * time.Hour) }

	return []*models.Alert{
		{Type: "critical", Message: "Flash flood warning issued for Sector 4 — Brahmaputra basin.", Source: "India Meteorological Department", ExpiresAt: in(24)},
		{Type: "critical", Message: "Cyclone Biparjoy: Mandatory evacuation for Puri coastal areas.", Source: "National Disaster Response Force", ExpiresAt: in(48)},
		{Type: "warning", Message: "Heavy rainfall expected in Uttarakhand for next 72 hours.", Source: "India Meteorological Department", ExpiresAt: in(72)},
		{Type: "warning", Message: "Aftershock advisory active for Kutch, Gujarat. Stay alert.", Source: "National Centre for Seismology", ExpiresAt: in(12)},
		{Type: "warning", Message: "Road closures on NH-7 near Chamoli due to landslide debris.", Source: "Uttarakhand State Disaster Management", ExpiresAt: in(36)},
		{Type: "info", Message: "Shelter B capacity updated to 85%. 120 beds available.", Source: "System", ExpiresAt: in(6)},
		{Type: "info", Message: "NDRF teams deployed to Guwahati for flood relief operations.", Source: "National Disaster Response Force", ExpiresAt: in(48)},
		{Type: "success", Message: "Power restored in Bhubaneswar urban area. All hospitals online.", Source: "Odisha State Electricity Board", ExpiresAt: in(12)},
	}
}

func SeedResources() []*models.Resource {
	shelter := func(name string, lng, lat float64, total, current int, phone, person string, tags ...string) *models.Resource {
		return &models.Resource{
			Name: name, Type: models.ResourceTypeShelter, Location: models.NewPoint(lng, lat),
			Status:   models.ResourceStatusOpen,
			Capacity: models.Capacity{Total: total, Current: current, Unit: "people"},
			Contact:  models.Contact{Phone: phone, Person: person}, Tags: tags,
		}
	}
	other := func(kind, name string, lng, lat float64, total, current int, unit, phone, person string, tags ...string) *models.Resource {
		return &models.Resource{
			Name: name, Type: kind, Location: models.NewPoint(lng, lat),
			Status:   models.ResourceStatusOpen,
			Capacity: models.Capacity{Total: total, Current: current, Unit: unit},
			Contact:  models.Contact{Phone: phone, Person: person}, Tags: tags,
		}
	}

	return []*models.Resource{
		shelter("Guwahati Relief Camp Alpha", 91.7468, 26.1158, 500, 340, "+91-361-2540112", "Rajesh Kumar", "medical", "wifi", "charging"),
		shelter("Bhuj Community Center", 69.6669, 23.2420, 200, 75, "+91-2832-250011", "Priya Patel", "children", "elderly", "charging"),
		shelter("Puri Cyclone Shelter Delta-1", 85.8245, 19.8070, 800, 612, "+91-6752-222233", "Anil Mohanty", "medical", "food", "wifi"),
		shelter("Joshimath Emergency Shelter", 79.5636, 30.5562, 150, 98, "+91-1389-222011", "Suresh Rawat", "heating", "medical"),
		shelter("New Delhi Emergency Hub", 77.2090, 28.6139, 1000, 120, "+91-11-23438091", "Aakash Sharma", "medical", "wifi", "charging", "food"),
		shelter("Chennai Flood Relief Center", 80.2707, 13.0827, 600, 250, "+91-44-25384520", "Lakshmi Narayanan", "children", "medical", "food"),

		other(models.ResourceTypeHospital, "GMCH Guwahati", 91.7876, 26.1823, 300, 245, "beds", "+91-361-2529457", "Dr. B. Deka", "emergency", "trauma", "icu"),
		other(models.ResourceTypeHospital, "SCB Medical College, Cuttack", 85.8830, 20.4625, 450, 380, "beds", "+91-671-2414080", "Dr. S. Mishra", "emergency", "trauma", "icu", "burns"),
		other(models.ResourceTypeHospital, "GK General Hospital, Bhuj", 69.6669, 23.2530, 200, 110, "beds", "+91-2832-252800", "Dr. M. Shah", "emergency", "orthopedics"),

		other(models.ResourceTypeFoodBank, "Guwahati Central Food Distribution", 91.7362, 26.1445, 5000, 2100, "meals", "+91-361-2540200", "Meena Das", "vegetarian", "baby-food"),
		other(models.ResourceTypeFoodBank, "Puri Relief Kitchen", 85.8315, 19.8135, 3000, 1800, "meals", "+91-6752-222500", "Bimal Rath", "vegetarian", "halal"),

		other(models.ResourceTypePolice, "Dispur Police Station — Disaster Coordination", 91.7898, 26.1407, 50, 42, "people", "+91-361-2261000", "SP R. Gogoi", "rescue", "evacuation"),
	}
}
