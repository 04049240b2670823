package cloudinary

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores submission images in Cloudinary. Images are keyed as
// {assignmentID}/{studentID}/{timestamp}.{ext} under the configured
// folder; the key is what gets persisted as the submission file path.
type Service struct {
	client    *cloudinary.Cloudinary
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	logger    zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client:    cld,
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		folder:    cfg.Folder,
		logger:    logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload stores the file under the given key and returns the key plus
// the publicly resolvable URL of the stored asset.
func (s *Service) Upload(ctx context.Context, key string, reader io.Reader) (string, string, error) {
	folder := strings.Trim(s.folder, "/")
	publicID := strings.TrimSuffix(key, extOf(key))

	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "image",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload asset: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("submission image uploaded")

	return result.PublicID, result.SecureURL, nil
}

// PublicURL resolves the permanent delivery URL for a stored key.
func (s *Service) PublicURL(path string) string {
	img, err := s.client.Image(path)
	if err != nil {
		return ""
	}

	resolved, err := img.String()
	if err != nil {
		return ""
	}

	return resolved
}

// SignedURL returns a time-limited download URL for a stored key,
// suitable for teacher review of images in a private bucket.
func (s *Service) SignedURL(_ context.Context, path string, expiresIn time.Duration) (string, error) {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}

	now := time.Now()
	values := url.Values{}
	values.Set("public_id", path)
	values.Set("timestamp", strconv.FormatInt(now.Unix(), 10))
	values.Set("expires_at", strconv.FormatInt(now.Add(expiresIn).Unix(), 10))

	signature, err := api.SignParameters(values, s.apiSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign download url: %w", err)
	}

	return fmt.Sprintf(
		"https://api.cloudinary.com/v1_1/%s/image/download?%s&api_key=%s&signature=%s",
		s.cloudName, values.Encode(), s.apiKey, signature,
	), nil
}

func extOf(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx:]
	}
	return ""
}
