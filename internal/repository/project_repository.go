package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/cirotrigo/studio-lagosta/internal/models"
)

type ProjectRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	GetByInstagramUsername(ctx context.Context, username string) (*models.Project, error)
}

type projectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, user_id, name, posting_provider, webhook_url, webhook_reminder_url,
	later_account_id, later_profile_id, later_access_token, instagram_username, created_at, updated_at`

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.PostingProvider, &p.WebhookURL, &p.WebhookReminderURL,
		&p.LaterAccountID, &p.LaterProfileID, &p.LaterAccessToken, &p.InstagramUsername,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return project, nil
}

func (r *projectRepository) GetByInstagramUsername(ctx context.Context, username string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE instagram_username = $1`
	project, err := scanProject(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return project, nil
}
