package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
)

type StoryEventRepository interface {
	GetByID(ctx context.Context, id int64) (*models.StoryEvent, error)
	Create(ctx context.Context, event *models.StoryEvent) (int64, error)
	ListByUsernameWindow(ctx context.Context, username string, from, to time.Time) ([]*models.StoryEvent, error)
}

type storyEventRepository struct {
	db *sql.DB
}

func NewStoryEventRepository(db *sql.DB) StoryEventRepository {
	return &storyEventRepository{db: db}
}

const storyEventColumns = `id, event_type, instagram_username, story_id, caption, permalink,
	media_type, media_url, taken_at, created_at`

func scanStoryEvent(row rowScanner) (*models.StoryEvent, error) {
	var ev models.StoryEvent
	err := row.Scan(&ev.ID, &ev.EventType, &ev.InstagramUsername, &ev.StoryID, &ev.Caption,
		&ev.Permalink, &ev.MediaType, &ev.MediaURL, &ev.TakenAt, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *storyEventRepository) GetByID(ctx context.Context, id int64) (*models.StoryEvent, error) {
	query := `SELECT ` + storyEventColumns + ` FROM story_events WHERE id = $1`
	event, err := scanStoryEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return event, nil
}

func (r *storyEventRepository) Create(ctx context.Context, event *models.StoryEvent) (int64, error) {
	query := `
		INSERT INTO story_events (event_type, instagram_username, story_id, caption, permalink, media_type, media_url, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (story_id) DO UPDATE SET caption = EXCLUDED.caption, permalink = EXCLUDED.permalink
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, event.EventType, event.InstagramUsername, event.StoryID,
		event.Caption, event.Permalink, event.MediaType, event.MediaURL, event.TakenAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *storyEventRepository) ListByUsernameWindow(ctx context.Context, username string, from, to time.Time) ([]*models.StoryEvent, error) {
	query := `SELECT ` + storyEventColumns + ` FROM story_events
		WHERE instagram_username = $1
		  AND event_type = $2
		  AND taken_at >= $3
		  AND taken_at <= $4
		ORDER BY taken_at ASC`

	rows, err := r.db.QueryContext(ctx, query, username, models.StoryEventTypeStory, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var events []*models.StoryEvent
	for rows.Next() {
		event, err := scanStoryEvent(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
