package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
)

// In-memory repository fakes. They mirror the SQL predicates of the
// real repositories closely enough for the services under test.

type fakePostRepo struct {
	mu     sync.Mutex
	posts  map[int64]*models.Post
	nextID int64
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*models.Post), nextID: 1}
}

func (r *fakePostRepo) add(post *models.Post) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID == 0 {
		post.ID = r.nextID
		r.nextID++
	}
	r.posts[post.ID] = post
	return post
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	clone := *post
	return &clone, nil
}

func (r *fakePostRepo) GetByVerificationTag(ctx context.Context, tag string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, post := range r.posts {
		if post.VerificationTag != nil && *post.VerificationTag == tag {
			clone := *post
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakePostRepo) ListDueForPublish(ctx context.Context, now time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*models.Post
	for _, post := range r.posts {
		if (post.Status == models.PostStatusScheduled || post.Status == models.PostStatusPosting) &&
			post.PublishType == models.PublishTypeAuto &&
			post.ScheduleType != models.ScheduleTypeRecurring &&
			post.ScheduledDatetime != nil && !post.ScheduledDatetime.After(now) {
			clone := *post
			due = append(due, &clone)
		}
	}
	sortByScheduled(due)
	return due, nil
}

func (r *fakePostRepo) ListDueForReminder(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*models.Post
	for _, post := range r.posts {
		if post.PublishType == models.PublishTypeReminder &&
			post.Status == models.PostStatusScheduled &&
			post.ReminderSentAt == nil &&
			post.ScheduledDatetime != nil &&
			!post.ScheduledDatetime.Before(from) && !post.ScheduledDatetime.After(to) {
			clone := *post
			due = append(due, &clone)
		}
	}
	sortByScheduled(due)
	return due, nil
}

func (r *fakePostRepo) ListRecurring(ctx context.Context) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.Post
	for _, post := range r.posts {
		if post.ScheduleType == models.ScheduleTypeRecurring && post.Status == models.PostStatusScheduled {
			clone := *post
			posts = append(posts, &clone)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) ListUnverifiedStories(ctx context.Context, retryable []string) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed := make(map[string]struct{})
	for _, code := range retryable {
		allowed[code] = struct{}{}
	}

	var posts []*models.Post
	for _, post := range r.posts {
		if post.PostType != models.PostTypeStory || post.Status != models.PostStatusPosted || post.VerifiedPermalink != nil {
			continue
		}
		if post.VerificationError != nil {
			if _, ok := allowed[*post.VerificationError]; !ok {
				continue
			}
		}
		clone := *post
		posts = append(posts, &clone)
	}
	return posts, nil
}

func (r *fakePostRepo) ListStaleAnalytics(ctx context.Context, olderThan time.Time, limit int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.Post
	for _, post := range r.posts {
		if post.Status != models.PostStatusPosted || post.ExternalPostID == nil {
			continue
		}
		if post.AnalyticsFetchedAt != nil && !post.AnalyticsFetchedAt.Before(olderThan) {
			continue
		}
		clone := *post
		posts = append(posts, &clone)
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *fakePostRepo) CountScheduledAfter(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, post := range r.posts {
		if post.Status == models.PostStatusScheduled &&
			post.ScheduleType != models.ScheduleTypeRecurring &&
			post.ScheduledDatetime != nil && post.ScheduledDatetime.After(now) {
			count++
		}
	}
	return count, nil
}

func (r *fakePostRepo) UpdateStatusFrom(ctx context.Context, postID int64, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok || post.Status != from {
		return false, nil
	}
	post.Status = to
	return true, nil
}

func (r *fakePostRepo) SetStatus(ctx context.Context, postID int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[postID]; ok {
		post.Status = status
	}
	return nil
}

func (r *fakePostRepo) MarkReminderSent(ctx context.Context, postID int64, sentAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok || post.ReminderSentAt != nil {
		return false, nil
	}
	post.ReminderSentAt = &sentAt
	return true, nil
}

func (r *fakePostRepo) SetDispatchResult(ctx context.Context, postID int64, externalID, providerStatus, publishedURL *string, publishedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return nil
	}
	if externalID != nil {
		post.ExternalPostID = externalID
	}
	post.ProviderStatus = providerStatus
	if publishedURL != nil {
		post.PublishedURL = publishedURL
	}
	if publishedAt != nil {
		post.PublishedAt = publishedAt
	}
	return nil
}

func (r *fakePostRepo) SetVerified(ctx context.Context, postID int64, storyID, permalink string, byFallback bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return nil
	}
	post.VerifiedStoryID = &storyID
	post.VerifiedPermalink = &permalink
	post.VerifiedByFallback = byFallback
	post.VerificationError = nil
	return nil
}

func (r *fakePostRepo) SetVerificationError(ctx context.Context, postID int64, code string, incrementAttempts bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return nil
	}
	post.VerificationError = &code
	if incrementAttempts {
		post.VerificationAttempts++
	}
	return nil
}

func (r *fakePostRepo) SetArchiveURL(ctx context.Context, postID int64, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[postID]; ok {
		post.ArchiveURL = &url
	}
	return nil
}

func (r *fakePostRepo) UpdateAnalytics(ctx context.Context, postID int64, a models.AnalyticsSnapshot, fetchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return nil
	}
	post.Likes = a.Likes
	post.Comments = a.Comments
	post.Shares = a.Shares
	post.Reach = a.Reach
	post.Impressions = a.Impressions
	post.Engagement = a.Engagement
	post.AnalyticsFetchedAt = &fetchedAt
	return nil
}

func sortByScheduled(posts []*models.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].ScheduledDatetime.Before(*posts[j].ScheduledDatetime)
	})
}

type fakeProjectRepo struct {
	projects map[int64]*models.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[int64]*models.Project)}
}

func (r *fakeProjectRepo) add(project *models.Project) *models.Project {
	r.projects[project.ID] = project
	return project
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	project, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	return project, nil
}

func (r *fakeProjectRepo) GetByInstagramUsername(ctx context.Context, username string) (*models.Project, error) {
	for _, project := range r.projects {
		if project.InstagramUsername != nil && *project.InstagramUsername == username {
			return project, nil
		}
	}
	return nil, nil
}

type fakePostLogRepo struct {
	mu      sync.Mutex
	entries []*models.PostLog
}

func newFakePostLogRepo() *fakePostLogRepo {
	return &fakePostLogRepo{}
}

func (r *fakePostLogRepo) Append(ctx context.Context, entry *models.PostLog) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.entries) + 1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, entry)
	return entry.ID, nil
}

func (r *fakePostLogRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []*models.PostLog
	for _, entry := range r.entries {
		if entry.PostID == postID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

type fakeRetryRepo struct {
	mu      sync.Mutex
	retries map[int64]*models.PostRetry
	nextID  int64
}

func newFakeRetryRepo() *fakeRetryRepo {
	return &fakeRetryRepo{retries: make(map[int64]*models.PostRetry), nextID: 1}
}

func (r *fakeRetryRepo) GetByID(ctx context.Context, id int64) (*models.PostRetry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	retry, ok := r.retries[id]
	if !ok {
		return nil, nil
	}
	clone := *retry
	return &clone, nil
}

func (r *fakeRetryRepo) Create(ctx context.Context, retry *models.PostRetry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	retry.ID = r.nextID
	r.nextID++
	retry.CreatedAt = time.Now()
	r.retries[retry.ID] = retry
	return retry.ID, nil
}

func (r *fakeRetryRepo) ListDue(ctx context.Context, now, windowStart time.Time) ([]*models.PostRetry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*models.PostRetry
	for _, retry := range r.retries {
		if retry.Status == models.RetryStatusPending &&
			!retry.NextAttemptAt.After(now) && !retry.CreatedAt.Before(windowStart) {
			clone := *retry
			due = append(due, &clone)
		}
	}
	return due, nil
}

func (r *fakeRetryRepo) MarkStatus(ctx context.Context, id int64, status, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if retry, ok := r.retries[id]; ok {
		retry.Status = status
		retry.LastError = lastError
	}
	return nil
}

func (r *fakeRetryRepo) IncrementAttempt(ctx context.Context, id int64, nextAttemptAt time.Time, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if retry, ok := r.retries[id]; ok {
		retry.AttemptCount++
		retry.NextAttemptAt = nextAttemptAt
		retry.LastError = lastError
	}
	return nil
}

type fakeStoryEventRepo struct {
	mu     sync.Mutex
	events map[int64]*models.StoryEvent
	nextID int64
}

func newFakeStoryEventRepo() *fakeStoryEventRepo {
	return &fakeStoryEventRepo{events: make(map[int64]*models.StoryEvent), nextID: 1}
}

func (r *fakeStoryEventRepo) GetByID(ctx context.Context, id int64) (*models.StoryEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	clone := *event
	return &clone, nil
}

func (r *fakeStoryEventRepo) Create(ctx context.Context, event *models.StoryEvent) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = r.nextID
	r.nextID++
	r.events[event.ID] = event
	return event.ID, nil
}

func (r *fakeStoryEventRepo) ListByUsernameWindow(ctx context.Context, username string, from, to time.Time) ([]*models.StoryEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []*models.StoryEvent
	for _, event := range r.events {
		if event.InstagramUsername == username &&
			event.EventType == models.StoryEventTypeStory &&
			!event.TakenAt.Before(from) && !event.TakenAt.After(to) {
			clone := *event
			events = append(events, &clone)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].TakenAt.Before(events[j].TakenAt) })
	return events, nil
}
