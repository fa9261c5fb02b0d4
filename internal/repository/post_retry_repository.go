package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
)

type PostRetryRepository interface {
	GetByID(ctx context.Context, id int64) (*models.PostRetry, error)
	Create(ctx context.Context, retry *models.PostRetry) (int64, error)
	ListDue(ctx context.Context, now, windowStart time.Time) ([]*models.PostRetry, error)
	MarkStatus(ctx context.Context, id int64, status, lastError string) error
	IncrementAttempt(ctx context.Context, id int64, nextAttemptAt time.Time, lastError string) error
}

type postRetryRepository struct {
	db *sql.DB
}

func NewPostRetryRepository(db *sql.DB) PostRetryRepository {
	return &postRetryRepository{db: db}
}

const retryColumns = `id, post_id, status, attempt_count, next_attempt_at, last_error, created_at, updated_at`

func scanRetry(row rowScanner) (*models.PostRetry, error) {
	var retry models.PostRetry
	err := row.Scan(&retry.ID, &retry.PostID, &retry.Status, &retry.AttemptCount,
		&retry.NextAttemptAt, &retry.LastError, &retry.CreatedAt, &retry.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &retry, nil
}

func (r *postRetryRepository) GetByID(ctx context.Context, id int64) (*models.PostRetry, error) {
	query := `SELECT ` + retryColumns + ` FROM post_retries WHERE id = $1`
	retry, err := scanRetry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return retry, nil
}

func (r *postRetryRepository) Create(ctx context.Context, retry *models.PostRetry) (int64, error) {
	query := `
		INSERT INTO post_retries (post_id, status, attempt_count, next_attempt_at, last_error)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, retry.PostID, retry.Status, retry.AttemptCount,
		retry.NextAttemptAt, retry.LastError).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

// ListDue returns pending rows inside the inspection window. Rows older
// than windowStart are left for the retention collaborator.
func (r *postRetryRepository) ListDue(ctx context.Context, now, windowStart time.Time) ([]*models.PostRetry, error) {
	query := `SELECT ` + retryColumns + ` FROM post_retries
		WHERE status = $1
		  AND next_attempt_at <= $2
		  AND created_at >= $3
		ORDER BY next_attempt_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.RetryStatusPending, now, windowStart)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var retries []*models.PostRetry
	for rows.Next() {
		retry, err := scanRetry(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		retries = append(retries, retry)
	}
	return retries, rows.Err()
}

func (r *postRetryRepository) MarkStatus(ctx context.Context, id int64, status, lastError string) error {
	query := `UPDATE post_retries SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, status, lastError, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRetryRepository) IncrementAttempt(ctx context.Context, id int64, nextAttemptAt time.Time, lastError string) error {
	query := `UPDATE post_retries SET attempt_count = attempt_count + 1,
		next_attempt_at = $1, last_error = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, nextAttemptAt, lastError, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
