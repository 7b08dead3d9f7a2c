package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"disaster-bot/internal/models"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

func (r *ReportRepo) Create(ctx context.Context, rep *models.Report) error {
	rep.ID = uuid.New()
	rep.Status = models.ReportStatusPending
	rep.Upvotes = 0

	query := `INSERT INTO reports (id, reporter_name, type, description, longitude, latitude, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		rep.ID, rep.ReporterName, rep.Type, rep.Description,
		rep.Location.Lng(), rep.Location.Lat(), rep.ImageURL, rep.Status,
	).Scan(&rep.CreatedAt, &rep.UpdatedAt)
}

func (r *ReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	rep := &models.Report{}
	var lng, lat float64
	err := r.pool.QueryRow(ctx, `SELECT id, reporter_name, type, description, longitude, latitude,
			image_url, status, upvotes, created_at, updated_at
		FROM reports WHERE id = $1`, id).Scan(
		&rep.ID, &rep.ReporterName, &rep.Type, &rep.Description, &lng, &lat,
		&rep.ImageURL, &rep.Status, &rep.Upvotes, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rep.Location = models.NewPoint(lng, lat)
	return rep, nil
}

func (r *ReportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, "UPDATE reports SET status = $2, updated_at = NOW() WHERE id = $1", id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
