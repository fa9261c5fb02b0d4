package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/repository"
	"github.com/cirotrigo/studio-lagosta/pkg/utils"
)

const (
	// StoryTTL is how long a story stays inspectable on the platform.
	// Past it, reconciliation is terminal.
	StoryTTL = 24 * time.Hour

	// Fallback scoring: weighted time proximity + caption overlap.
	// A candidate below the threshold is not considered a match.
	fallbackThreshold = 0.55
	timeWeight        = 0.6
	captionWeight     = 0.4

	// candidateLookback widens the window slightly before the scheduled
	// time to tolerate clock skew between us and the platform feed.
	candidateLookback = 15 * time.Minute
)

type StoryCandidate struct {
	Event *models.StoryEvent `json:"event"`
	Score float64            `json:"score"`
}

type ReconcileReport struct {
	Verified int `json:"verified"`
	Errored  int `json:"errored"`
	Skipped  int `json:"skipped"`
}

// VerificationService confirms that scheduled stories actually rendered
// on the platform. The inbound webhook feed is the source of truth; a
// caption tag match is immediate, everything else goes through the
// scored fallback.
type VerificationService interface {
	HandleStoryEvent(ctx context.Context, event *models.StoryEvent) error
	ReconcileDue(ctx context.Context, now time.Time) (*ReconcileReport, error)
	Candidates(ctx context.Context, postID int64, now time.Time) ([]*StoryCandidate, error)
	Resolve(ctx context.Context, postID, eventID int64) error
}

type verificationService struct {
	pr      repository.PostRepository
	pj      repository.ProjectRepository
	se      repository.StoryEventRepository
	pl      repository.PostLogRepository
	archive ArchiveService
}

func NewVerificationService(
	pr repository.PostRepository,
	pj repository.ProjectRepository,
	se repository.StoryEventRepository,
	pl repository.PostLogRepository,
	archive ArchiveService) VerificationService {
	return &verificationService{
		pr:      pr,
		pj:      pj,
		se:      se,
		pl:      pl,
		archive: archive,
	}
}

// HandleStoryEvent is the primary path: an inbound story whose caption
// carries the tag embedded at authoring time resolves immediately and
// unambiguously.
func (s *verificationService) HandleStoryEvent(ctx context.Context, event *models.StoryEvent) error {
	tag := utils.ExtractVerificationTag(event.Caption)
	if tag == "" {
		return nil
	}

	post, err := s.pr.GetByVerificationTag(ctx, tag)
	if err != nil {
		return err
	}
	if post == nil || post.PostType != models.PostTypeStory {
		return nil
	}
	if post.VerifiedPermalink != nil {
		return nil
	}

	return s.verify(ctx, post, event, false, "tag match from platform webhook")
}

func (s *verificationService) ReconcileDue(ctx context.Context, now time.Time) (*ReconcileReport, error) {
	posts, err := s.pr.ListUnverifiedStories(ctx, models.RetryableVerificationErrors())
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{}
	for _, post := range posts {
		verified, err := s.reconcilePost(ctx, post, now)
		if err != nil {
			slog.Info(err.Error())
			report.Errored++
			continue
		}
		if verified {
			report.Verified++
		} else {
			report.Skipped++
		}
	}
	return report, nil
}

func (s *verificationService) reconcilePost(ctx context.Context, post *models.Post, now time.Time) (bool, error) {
	base := verificationBaseTime(post)

	project, err := s.pj.GetByID(ctx, post.ProjectID)
	if err != nil {
		return false, err
	}
	if project == nil || project.InstagramUsername == nil || *project.InstagramUsername == "" {
		return false, s.pr.SetVerificationError(ctx, post.ID, models.VerificationErrNoIGAccount, false)
	}

	// Terminal once the platform can no longer show the story.
	if now.After(base.Add(StoryTTL)) {
		return false, s.pr.SetVerificationError(ctx, post.ID, models.VerificationErrTTLExpired, false)
	}

	events, err := s.se.ListByUsernameWindow(ctx, *project.InstagramUsername,
		base.Add(-candidateLookback), base.Add(StoryTTL))
	if err != nil {
		return false, err
	}

	// The tag may have arrived in an event recorded before this post
	// existed or while ingestion was degraded; check it before scoring.
	if post.VerificationTag != nil {
		for _, event := range events {
			if strings.Contains(event.Caption, *post.VerificationTag) {
				return true, s.verify(ctx, post, event, false, "tag match during reconciliation sweep")
			}
		}
	}

	if post.VerificationTag == nil && len(events) == 0 {
		// Predates tagging and the feed has nothing to fall back on.
		return false, s.pr.SetVerificationError(ctx, post.ID, models.VerificationErrLegacyPostNoTag, false)
	}

	matches := scoreCandidates(post, events, base)
	switch len(matches) {
	case 0:
		return false, s.pr.SetVerificationError(ctx, post.ID, models.VerificationErrNotFound, true)
	case 1:
		return true, s.verify(ctx, post, matches[0].Event, true,
			fmt.Sprintf("fallback match with score %.2f", matches[0].Score))
	default:
		// Surfaced for manual disambiguation via the candidates endpoint.
		return false, s.pr.SetVerificationError(ctx, post.ID, models.VerificationErrAmbiguousMatch, false)
	}
}

// Candidates recomputes the above-threshold match set for a post, for
// the operator UI handling AMBIGUOUS_MATCH.
func (s *verificationService) Candidates(ctx context.Context, postID int64, now time.Time) ([]*StoryCandidate, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("post %d not found", postID)
	}
	if post.PostType != models.PostTypeStory {
		return nil, errors.New("only story posts are verified")
	}

	project, err := s.pj.GetByID(ctx, post.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.InstagramUsername == nil {
		return nil, errors.New("project has no instagram account configured")
	}

	base := verificationBaseTime(post)
	events, err := s.se.ListByUsernameWindow(ctx, *project.InstagramUsername,
		base.Add(-candidateLookback), base.Add(StoryTTL))
	if err != nil {
		return nil, err
	}

	return scoreCandidates(post, events, base), nil
}

// Resolve applies an operator's pick for an ambiguous match. This is a
// forced resolution, not a reconciler decision.
func (s *verificationService) Resolve(ctx context.Context, postID, eventID int64) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post %d not found", postID)
	}
	if post.PostType != models.PostTypeStory {
		return errors.New("only story posts are verified")
	}
	if post.VerifiedPermalink != nil {
		return errors.New("post is already verified")
	}

	event, err := s.se.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("story event %d not found", eventID)
	}

	return s.verify(ctx, post, event, true, "resolved by operator")
}

func (s *verificationService) verify(ctx context.Context, post *models.Post, event *models.StoryEvent, byFallback bool, message string) error {
	if err := s.pr.SetVerified(ctx, post.ID, event.StoryID, event.Permalink, byFallback); err != nil {
		return err
	}

	_, err := s.pl.Append(ctx, &models.PostLog{
		PostID:   post.ID,
		Event:    models.LogEventVerified,
		Message:  message,
		Metadata: fmt.Sprintf(`{"story_id":%q,"by_fallback":%t}`, event.StoryID, byFallback),
	})
	if err != nil {
		slog.Info(err.Error())
	}

	// Archive before the platform drops the media; best-effort only.
	if s.archive != nil && event.MediaURL != "" {
		if _, err := s.archive.ArchiveStory(ctx, post.ID, event.MediaURL); err != nil {
			slog.Info("story archive failed", "post_id", post.ID, "error", err.Error())
		}
	}
	return nil
}

func verificationBaseTime(post *models.Post) time.Time {
	if post.PublishedAt != nil {
		return *post.PublishedAt
	}
	if post.ScheduledDatetime != nil {
		return *post.ScheduledDatetime
	}
	return post.CreatedAt
}

func scoreCandidates(post *models.Post, events []*models.StoryEvent, base time.Time) []*StoryCandidate {
	var matches []*StoryCandidate
	for _, event := range events {
		score := candidateScore(post, event, base)
		if score >= fallbackThreshold {
			matches = append(matches, &StoryCandidate{Event: event, Score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

// candidateScore blends temporal proximity (decaying linearly to zero
// over the story TTL) with token-overlap caption similarity.
func candidateScore(post *models.Post, event *models.StoryEvent, base time.Time) float64 {
	distance := event.TakenAt.Sub(base)
	if distance < 0 {
		distance = -distance
	}

	timeScore := 1 - float64(distance)/float64(StoryTTL)
	if timeScore < 0 {
		timeScore = 0
	}

	postCaption := post.Caption
	if post.VerificationTag != nil {
		postCaption = strings.ReplaceAll(postCaption, *post.VerificationTag, "")
	}

	return timeWeight*timeScore + captionWeight*captionSimilarity(postCaption, event.Caption)
}

// captionSimilarity is Jaccard overlap over lower-cased word tokens.
func captionSimilarity(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenize(caption string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(caption)) {
		tokens[field] = struct{}{}
	}
	return tokens
}
