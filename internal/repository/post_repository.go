package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/cirotrigo/studio-lagosta/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByVerificationTag(ctx context.Context, tag string) (*models.Post, error)
	ListDueForPublish(ctx context.Context, now time.Time) ([]*models.Post, error)
	ListDueForReminder(ctx context.Context, from, to time.Time) ([]*models.Post, error)
	ListRecurring(ctx context.Context) ([]*models.Post, error)
	ListUnverifiedStories(ctx context.Context, retryable []string) ([]*models.Post, error)
	ListStaleAnalytics(ctx context.Context, olderThan time.Time, limit int) ([]*models.Post, error)
	CountScheduledAfter(ctx context.Context, now time.Time) (int, error)
	UpdateStatusFrom(ctx context.Context, postID int64, from, to string) (bool, error)
	SetStatus(ctx context.Context, postID int64, status string) error
	MarkReminderSent(ctx context.Context, postID int64, sentAt time.Time) (bool, error)
	SetDispatchResult(ctx context.Context, postID int64, externalID, providerStatus, publishedURL *string, publishedAt *time.Time) error
	SetVerified(ctx context.Context, postID int64, storyID, permalink string, byFallback bool) error
	SetVerificationError(ctx context.Context, postID int64, code string, incrementAttempts bool) error
	SetArchiveURL(ctx context.Context, postID int64, url string) error
	UpdateAnalytics(ctx context.Context, postID int64, a models.AnalyticsSnapshot, fetchedAt time.Time) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, project_id, user_id, post_type, caption, media_urls, alt_text, first_comment,
	schedule_type, scheduled_datetime, recurring_config, publish_type, reminder_sent_at, status,
	external_post_id, provider_status, published_url, published_at,
	verification_tag, verified_story_id, verified_permalink, verified_by_fallback,
	verification_error, verification_attempts, archive_url,
	likes, comments, shares, reach, impressions, engagement, analytics_fetched_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var recurring []byte

	err := row.Scan(
		&post.ID, &post.ProjectID, &post.UserID, &post.PostType, &post.Caption,
		pq.Array(&post.MediaURLs), &post.AltText, &post.FirstComment,
		&post.ScheduleType, &post.ScheduledDatetime, &recurring, &post.PublishType,
		&post.ReminderSentAt, &post.Status,
		&post.ExternalPostID, &post.ProviderStatus, &post.PublishedURL, &post.PublishedAt,
		&post.VerificationTag, &post.VerifiedStoryID, &post.VerifiedPermalink, &post.VerifiedByFallback,
		&post.VerificationError, &post.VerificationAttempts, &post.ArchiveURL,
		&post.Likes, &post.Comments, &post.Shares, &post.Reach, &post.Impressions,
		&post.Engagement, &post.AnalyticsFetchedAt,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(recurring) > 0 {
		var rc models.RecurringConfig
		if err := json.Unmarshal(recurring, &rc); err != nil {
			return nil, err
		}
		post.Recurring = &rc
	}

	return &post, nil
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) GetByVerificationTag(ctx context.Context, tag string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE verification_tag = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, tag))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListDueForPublish(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status IN ($1, $2)
		  AND publish_type = $3
		  AND schedule_type != $4
		  AND scheduled_datetime IS NOT NULL
		  AND scheduled_datetime <= $5
		ORDER BY scheduled_datetime ASC`
	return r.queryPosts(ctx, query,
		models.PostStatusScheduled, models.PostStatusPosting,
		models.PublishTypeAuto, models.ScheduleTypeRecurring, now)
}

func (r *postRepository) ListDueForReminder(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE publish_type = $1
		  AND status = $2
		  AND reminder_sent_at IS NULL
		  AND scheduled_datetime >= $3
		  AND scheduled_datetime <= $4
		ORDER BY scheduled_datetime ASC`
	return r.queryPosts(ctx, query, models.PublishTypeReminder, models.PostStatusScheduled, from, to)
}

func (r *postRepository) ListRecurring(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE schedule_type = $1 AND status = $2`
	return r.queryPosts(ctx, query, models.ScheduleTypeRecurring, models.PostStatusScheduled)
}

func (r *postRepository) ListUnverifiedStories(ctx context.Context, retryable []string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE post_type = $1
		  AND status = $2
		  AND verified_permalink IS NULL
		  AND (verification_error IS NULL OR verification_error = ANY($3))
		ORDER BY published_at ASC NULLS LAST`
	return r.queryPosts(ctx, query, models.PostTypeStory, models.PostStatusPosted, pq.Array(retryable))
}

func (r *postRepository) ListStaleAnalytics(ctx context.Context, olderThan time.Time, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1
		  AND external_post_id IS NOT NULL
		  AND (analytics_fetched_at IS NULL OR analytics_fetched_at < $2)
		ORDER BY analytics_fetched_at ASC NULLS FIRST
		LIMIT $3`
	return r.queryPosts(ctx, query, models.PostStatusPosted, olderThan, limit)
}

// CountScheduledAfter counts non-recurring posts still waiting for a
// future slot. Recurring posts are aggregated separately because their
// activity depends on the rule's end date, not a datetime column.
func (r *postRepository) CountScheduledAfter(ctx context.Context, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM posts
		WHERE status = $1
		  AND schedule_type != $2
		  AND scheduled_datetime IS NOT NULL
		  AND scheduled_datetime > $3`

	var count int
	err := r.db.QueryRowContext(ctx, query, models.PostStatusScheduled, models.ScheduleTypeRecurring, now).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postRepository) UpdateStatusFrom(ctx context.Context, postID int64, from, to string) (bool, error) {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), postID, from)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) SetStatus(ctx context.Context, postID int64, status string) error {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkReminderSent is guarded by reminder_sent_at IS NULL so two
// overlapping dispatcher runs cannot both claim the send.
func (r *postRepository) MarkReminderSent(ctx context.Context, postID int64, sentAt time.Time) (bool, error) {
	query := `UPDATE posts SET reminder_sent_at = $1, updated_at = $2
		WHERE id = $3 AND reminder_sent_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, sentAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) SetDispatchResult(ctx context.Context, postID int64, externalID, providerStatus, publishedURL *string, publishedAt *time.Time) error {
	query := `UPDATE posts SET
			external_post_id = COALESCE($1, external_post_id),
			provider_status = $2,
			published_url = COALESCE($3, published_url),
			published_at = COALESCE($4, published_at),
			updated_at = $5
		WHERE id = $6`
	_, err := r.db.ExecContext(ctx, query, externalID, providerStatus, publishedURL, publishedAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetVerified(ctx context.Context, postID int64, storyID, permalink string, byFallback bool) error {
	query := `UPDATE posts SET
			verified_story_id = $1,
			verified_permalink = $2,
			verified_by_fallback = $3,
			verification_error = NULL,
			updated_at = $4
		WHERE id = $5`
	_, err := r.db.ExecContext(ctx, query, storyID, permalink, byFallback, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetVerificationError(ctx context.Context, postID int64, code string, incrementAttempts bool) error {
	increment := 0
	if incrementAttempts {
		increment = 1
	}
	query := `UPDATE posts SET
			verification_error = $1,
			verification_attempts = verification_attempts + $2,
			updated_at = $3
		WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, code, increment, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetArchiveURL(ctx context.Context, postID int64, url string) error {
	query := `UPDATE posts SET archive_url = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, url, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateAnalytics(ctx context.Context, postID int64, a models.AnalyticsSnapshot, fetchedAt time.Time) error {
	query := `UPDATE posts SET
			likes = $1, comments = $2, shares = $3, reach = $4, impressions = $5,
			engagement = $6, analytics_fetched_at = $7, updated_at = $8
		WHERE id = $9`
	_, err := r.db.ExecContext(ctx, query,
		a.Likes, a.Comments, a.Shares, a.Reach, a.Impressions,
		a.Engagement, fetchedAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
