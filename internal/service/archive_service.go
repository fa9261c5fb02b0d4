package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/cirotrigo/studio-lagosta/configs"
	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/repository"
)

// maxArchiveBytes caps a single story download; stories are short
// images or clips, anything larger is rejected.
const maxArchiveBytes = 100 * 1024 * 1024

// ArchiveService copies verified story media to R2 before the platform
// drops it at the 24h TTL.
type ArchiveService interface {
	ArchiveStory(ctx context.Context, postID int64, mediaURL string) (string, error)
}

type archiveService struct {
	cfg    config.Config
	pr     repository.PostRepository
	pl     repository.PostLogRepository
	client *http.Client
}

func NewArchiveService(cfg config.Config, pr repository.PostRepository, pl repository.PostLogRepository) ArchiveService {
	return &archiveService{
		cfg:    cfg,
		pr:     pr,
		pl:     pl,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *archiveService) r2Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.cfg.R2.AccessKey, s.cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.cfg.R2.AccountID))
	}), nil
}

func (s *archiveService) ArchiveStory(ctx context.Context, postID int64, mediaURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading story media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d downloading story media", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes))
	if err != nil {
		return "", fmt.Errorf("error reading story media: %w", err)
	}

	fileType, err := filetype.Match(data)
	if err != nil || fileType == types.Unknown {
		return "", fmt.Errorf("unsupported media type: %w", err)
	}

	key, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key = fmt.Sprintf("story-archive/%s.%s", key, fileType.Extension)

	r2, err := s.r2Client(ctx)
	if err != nil {
		return "", err
	}

	_, err = r2.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(fileType.MIME.Value),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	archiveURL := fmt.Sprintf("%s/%s", s.cfg.R2.PublicURL, key)
	if err := s.pr.SetArchiveURL(ctx, postID, archiveURL); err != nil {
		return "", err
	}

	_, err = s.pl.Append(ctx, &models.PostLog{
		PostID:  postID,
		Event:   models.LogEventArchived,
		Message: "story media archived",
	})
	if err != nil {
		slog.Info(err.Error())
	}

	return archiveURL, nil
}
