package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"disaster-bot/internal/models"
)

// ErrUnknownDisaster is returned when an alert links a disaster that does
// not exist.
var ErrUnknownDisaster = errors.New("linked disaster does not exist")

const foreignKeyViolation = "23503"

type AlertRepo struct {
	pool *pgxpool.Pool
}

func NewAlertRepo(pool *pgxpool.Pool) *AlertRepo {
	return &AlertRepo{pool: pool}
}

func (r *AlertRepo) Create(ctx context.Context, a *models.Alert) error {
	a.ID = uuid.New()
	if a.Source == "" {
		a.Source = models.DefaultAlertSource
	}

	query := `INSERT INTO alerts (id, type, message, source, disaster_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		a.ID, a.Type, a.Message, a.Source, a.DisasterID, a.ExpiresAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if isForeignKeyViolation(err) {
		return ErrUnknownDisaster
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// ListActive returns non-expired alerts, newest first. An empty alertType
// matches every type.
func (r *AlertRepo) ListActive(ctx context.Context, now time.Time, limit int, alertType string) ([]*models.Alert, error) {
	args := []interface{}{now}
	where := "WHERE expires_at > $1"
	if alertType != "" {
		args = append(args, alertType)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT id, type, message, source, disaster_id, expires_at, created_at, updated_at
		FROM alerts %s ORDER BY created_at DESC LIMIT $%d`, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query active alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*models.Alert{}
	for rows.Next() {
		a := &models.Alert{}
		if err := rows.Scan(&a.ID, &a.Type, &a.Message, &a.Source, &a.DisasterID,
			&a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *AlertRepo) CountActive(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM alerts WHERE expires_at > $1", now).Scan(&n)
	return n, err
}

// DeleteExpired removes alerts whose expiry has passed and returns how many.
func (r *AlertRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM alerts WHERE expires_at <= $1", now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
