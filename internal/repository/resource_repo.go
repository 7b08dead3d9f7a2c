package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"disaster-bot/internal/geo"
	"disaster-bot/internal/models"
)

// MaxNearbyResults caps a nearby query.
const MaxNearbyResults = 50

var ErrNotFound = errors.New("not found")

type ResourceRepo struct {
	pool *pgxpool.Pool
}

func NewResourceRepo(pool *pgxpool.Pool) *ResourceRepo {
	return &ResourceRepo{pool: pool}
}

const resourceColumns = `id, name, type, longitude, latitude, status,
	capacity_total, capacity_current, capacity_unit, contact_phone, contact_person,
	tags, created_at, updated_at`

func scanResource(row rowScanner) (*models.Resource, error) {
	res := &models.Resource{}
	var lng, lat float64
	err := row.Scan(
		&res.ID, &res.Name, &res.Type, &lng, &lat, &res.Status,
		&res.Capacity.Total, &res.Capacity.Current, &res.Capacity.Unit,
		&res.Contact.Phone, &res.Contact.Person,
		&res.Tags, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if res.Tags == nil {
		res.Tags = []string{}
	}
	res.Location = models.NewPoint(lng, lat)
	return res, nil
}

func (r *ResourceRepo) collect(rows pgx.Rows) ([]*models.Resource, error) {
	defer rows.Close()

	resources := []*models.Resource{}
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *ResourceRepo) Create(ctx context.Context, res *models.Resource) error {
	res.ID = uuid.New()
	if res.Status == "" {
		res.Status = models.ResourceStatusOpen
	}
	if res.Capacity.Unit == "" {
		res.Capacity.Unit = models.DefaultCapacityUnit
	}
	if res.Tags == nil {
		res.Tags = []string{}
	}

	query := `INSERT INTO resources (id, name, type, longitude, latitude, status,
			capacity_total, capacity_current, capacity_unit, contact_phone, contact_person, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		res.ID, res.Name, res.Type, res.Location.Lng(), res.Location.Lat(), res.Status,
		res.Capacity.Total, res.Capacity.Current, res.Capacity.Unit,
		res.Contact.Phone, res.Contact.Person, res.Tags,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
}

func (r *ResourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id)
	res, err := scanResource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// ListShelters returns every shelter, fullest first.
func (r *ResourceRepo) ListShelters(ctx context.Context) ([]*models.Resource, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+resourceColumns+` FROM resources
		WHERE type = $1 ORDER BY capacity_current DESC`, models.ResourceTypeShelter)
	if err != nil {
		return nil, fmt.Errorf("query shelters: %w", err)
	}
	return r.collect(rows)
}

// Nearby returns resources within radius meters of (lat, lng), nearest first.
// The bounding box narrows the scan; the exact great-circle check runs here.
func (r *ResourceRepo) Nearby(ctx context.Context, lat, lng, radius float64, resourceType string) ([]*models.Resource, error) {
	box := geo.BoundsAround(lat, lng, radius)

	args := []interface{}{box.MinLat, box.MaxLat, box.MinLng, box.MaxLng}
	where := "WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4"
	if resourceType != "" {
		args = append(args, resourceType)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, `SELECT `+resourceColumns+` FROM resources `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query nearby resources: %w", err)
	}
	candidates, err := r.collect(rows)
	if err != nil {
		return nil, err
	}

	return FilterByDistance(candidates, lat, lng, radius, MaxNearbyResults), nil
}

// FilterByDistance keeps resources within radius, annotates their distance,
// sorts nearest first and truncates to limit.
func FilterByDistance(resources []*models.Resource, lat, lng, radius float64, limit int) []*models.Resource {
	within := []*models.Resource{}
	for _, res := range resources {
		d := geo.Distance(lat, lng, res.Location.Lat(), res.Location.Lng())
		if d > radius {
			continue
		}
		res.Distance = &d
		within = append(within, res)
	}

	sort.SliceStable(within, func(i, j int) bool { return *within[i].Distance < *within[j].Distance })
	if len(within) > limit {
		within = within[:limit]
	}
	return within
}

// ShelterStats aggregates capacity across shelters that are not closed.
func (r *ResourceRepo) ShelterStats(ctx context.Context) (models.ShelterStats, error) {
	var s models.ShelterStats
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(capacity_total), 0), COALESCE(SUM(capacity_current), 0)
		FROM resources WHERE type = $1 AND status <> $2`,
		models.ResourceTypeShelter, models.ResourceStatusClosed,
	).Scan(&s.TotalShelters, &s.TotalCapacity, &s.CurrentOccupancy)
	return s, err
}

func (r *ResourceRepo) UpdateCapacity(ctx context.Context, res *models.Resource) error {
	tag, err := r.pool.Exec(ctx, `UPDATE resources
		SET capacity_total = $2, capacity_current = $3, status = $4, updated_at = NOW()
		WHERE id = $1`,
		res.ID, res.Capacity.Total, res.Capacity.Current, res.Status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
