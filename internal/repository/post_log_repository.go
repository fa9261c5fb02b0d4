package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/cirotrigo/studio-lagosta/internal/models"
)

// PostLogRepository is append-only. Pruning is done by an external
// retention job, never here.
type PostLogRepository interface {
	Append(ctx context.Context, entry *models.PostLog) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostLog, error)
}

type postLogRepository struct {
	db *sql.DB
}

func NewPostLogRepository(db *sql.DB) PostLogRepository {
	return &postLogRepository{db: db}
}

func (r *postLogRepository) Append(ctx context.Context, entry *models.PostLog) (int64, error) {
	query := `
		INSERT INTO post_logs (post_id, event, message, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	metadata := entry.Metadata
	if metadata == "" {
		metadata = "{}"
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query, entry.PostID, entry.Event, entry.Message, metadata).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postLogRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostLog, error) {
	query := `SELECT id, post_id, event, message, metadata, created_at
		FROM post_logs WHERE post_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.PostLog
	for rows.Next() {
		var entry models.PostLog
		err := rows.Scan(&entry.ID, &entry.PostID, &entry.Event, &entry.Message, &entry.Metadata, &entry.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
