package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	config "github.com/cirotrigo/studio-lagosta/configs"
	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/transfer"
	"github.com/cirotrigo/studio-lagosta/pkg/utils"
)

// LaterService is the first-party scheduling-API provider client.
type LaterService interface {
	ProviderAdapter
	GetPost(ctx context.Context, project *models.Project, externalID string) (*transfer.LaterPostResponse, error)
	ListAccounts(ctx context.Context, project *models.Project) ([]*transfer.LaterAccount, error)
}

type laterService struct {
	cfg    config.Config
	client *http.Client
}

func NewLaterService(cfg config.Config) LaterService {
	return &laterService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *laterService) accessToken(project *models.Project) (string, error) {
	if project.LaterAccessToken == nil || *project.LaterAccessToken == "" {
		return "", &ProviderError{Code: models.VerificationErrTokenError, Message: "project has no scheduling-API token"}
	}
	token, err := utils.Decrypt(*project.LaterAccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", &ProviderError{Code: models.VerificationErrTokenError, Message: "unable to decrypt scheduling-API token"}
	}
	return token, nil
}

func (s *laterService) doRequest(ctx context.Context, project *models.Project, method, path string, payload, out any) error {
	token, err := s.accessToken(project)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshalling payload: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.LaterBaseURL+path, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return &ProviderError{Code: models.VerificationErrAPIError, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr transfer.LaterErrorResponse
		message := string(respBody)
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return providerErrorFromStatus(resp.StatusCode, message)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("error parsing response: %w", err)
		}
	}
	return nil
}

func (s *laterService) CreatePost(ctx context.Context, project *models.Project, post *models.Post) (*ProviderResult, error) {
	if project.LaterAccountID == nil || *project.LaterAccountID == "" {
		return nil, &ProviderError{Code: models.VerificationErrNoIGAccount, Message: "project has no scheduling-API account"}
	}

	payload := transfer.LaterCreatePostRequest{
		AccountID:     *project.LaterAccountID,
		PostType:      post.PostType,
		Caption:       post.Caption,
		MediaURLs:     post.MediaURLs,
		ScheduledTime: post.ScheduledDatetime,
	}
	if project.LaterProfileID != nil {
		payload.ProfileID = *project.LaterProfileID
	}
	if post.AltText != nil {
		payload.AltText = *post.AltText
	}
	if post.FirstComment != nil {
		payload.FirstComment = *post.FirstComment
	}

	var result transfer.LaterPostResponse
	if err := s.doRequest(ctx, project, http.MethodPost, "/posts", payload, &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, &ProviderError{Code: models.VerificationErrAPIError, Message: "no post id returned from provider"}
	}

	return &ProviderResult{
		ExternalID:  result.ID,
		Status:      result.Status,
		Permalink:   result.Permalink,
		PublishedAt: result.PublishedAt,
	}, nil
}

func (s *laterService) UpdatePost(ctx context.Context, project *models.Project, post *models.Post) (*ProviderResult, error) {
	if post.ExternalPostID == nil || *post.ExternalPostID == "" {
		return nil, errors.New("post was never dispatched to the scheduling-API provider")
	}

	payload := transfer.LaterUpdatePostRequest{
		Caption:       &post.Caption,
		MediaURLs:     post.MediaURLs,
		AltText:       post.AltText,
		FirstComment:  post.FirstComment,
		ScheduledTime: post.ScheduledDatetime,
	}

	var result transfer.LaterPostResponse
	if err := s.doRequest(ctx, project, http.MethodPatch, "/posts/"+*post.ExternalPostID, payload, &result); err != nil {
		return nil, err
	}

	return &ProviderResult{
		ExternalID:  result.ID,
		Status:      result.Status,
		Permalink:   result.Permalink,
		PublishedAt: result.PublishedAt,
	}, nil
}

func (s *laterService) GetPost(ctx context.Context, project *models.Project, externalID string) (*transfer.LaterPostResponse, error) {
	var result transfer.LaterPostResponse
	if err := s.doRequest(ctx, project, http.MethodGet, "/posts/"+externalID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *laterService) GetPostAnalytics(ctx context.Context, project *models.Project, externalID string) (*models.AnalyticsSnapshot, error) {
	var result transfer.LaterAnalyticsResponse
	if err := s.doRequest(ctx, project, http.MethodGet, "/posts/"+externalID+"/analytics", nil, &result); err != nil {
		return nil, err
	}

	snapshot := models.AnalyticsSnapshot{
		Likes:       result.Likes,
		Comments:    result.Comments,
		Shares:      result.Shares,
		Reach:       result.Reach,
		Impressions: result.Impressions,
		Engagement:  result.Engagement,
	}
	if snapshot.Engagement == 0 {
		snapshot.Engagement = float64(result.Likes + result.Comments + result.Shares)
	}
	return &snapshot, nil
}

// ListAccounts is only used during project onboarding to pick the
// account/profile pair stored on the project.
func (s *laterService) ListAccounts(ctx context.Context, project *models.Project) ([]*transfer.LaterAccount, error) {
	var result struct {
		Accounts []*transfer.LaterAccount `json:"accounts"`
	}
	if err := s.doRequest(ctx, project, http.MethodGet, "/accounts", nil, &result); err != nil {
		return nil, err
	}
	return result.Accounts, nil
}
