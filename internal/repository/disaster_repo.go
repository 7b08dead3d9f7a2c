package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"disaster-bot/internal/models"
)

type DisasterRepo struct {
	pool *pgxpool.Pool
}

func NewDisasterRepo(pool *pgxpool.Pool) *DisasterRepo {
	return &DisasterRepo{pool: pool}
}

const disasterColumns = `id, type, severity, title, description, longitude, latitude,
	affected_radius, status, created_at, updated_at`

func scanDisaster(row rowScanner) (*models.Disaster, error) {
	d := &models.Disaster{}
	var lng, lat float64
	err := row.Scan(
		&d.ID, &d.Type, &d.Severity, &d.Title, &d.Description, &lng, &lat,
		&d.AffectedRadius, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Location = models.NewPoint(lng, lat)
	return d, nil
}

func (r *DisasterRepo) Create(ctx context.Context, d *models.Disaster) error {
	d.ID = uuid.New()
	if d.Status == "" {
		d.Status = models.DisasterStatusActive
	}

	query := `INSERT INTO disasters (id, type, severity, title, description, longitude, latitude, affected_radius, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		d.ID, d.Type, d.Severity, d.Title, d.Description,
		d.Location.Lng(), d.Location.Lat(), d.AffectedRadius, d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

// ListActive returns active disasters, newest first.
func (r *DisasterRepo) ListActive(ctx context.Context) ([]*models.Disaster, error) {
	query := `SELECT ` + disasterColumns + ` FROM disasters
		WHERE status = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, models.DisasterStatusActive)
	if err != nil {
		return nil, fmt.Errorf("query active disasters: %w", err)
	}
	defer rows.Close()

	disasters := []*models.Disaster{}
	for rows.Next() {
		d, err := scanDisaster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan disaster: %w", err)
		}
		disasters = append(disasters, d)
	}
	return disasters, rows.Err()
}

func (r *DisasterRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM disasters WHERE status = $1", models.DisasterStatusActive).Scan(&n)
	return n, err
}
