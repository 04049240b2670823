// Package ocr extracts plain text from submitted homework images.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// minImageBytes is the plausibility floor: anything smaller cannot be
// a legible photo of homework.
const minImageBytes = 512

// maxImageBytes caps what gets pulled into memory for sniffing.
const maxImageBytes = 20 << 20

// TextExtractor turns an image URL into plain text. Degraded inputs
// (unreachable URL, non-image payload, implausibly small file, vision
// failure) yield an empty string, not an error; an error is returned
// only when the context is cancelled.
type TextExtractor interface {
	ExtractText(ctx context.Context, imageURL string) (string, error)
}

// VisionConfig configures the OpenAI-backed extractor.
type VisionConfig struct {
	APIKey       string
	Model        string
	FetchTimeout time.Duration
	Logger       zerolog.Logger
}

// VisionExtractor fetches the image, validates it, and asks a vision
// model to transcribe it.
type VisionExtractor struct {
	client  *openai.Client
	httpcli *http.Client
	model   string
	logger  zerolog.Logger
}

// NewVisionExtractor builds the extractor.
func NewVisionExtractor(cfg VisionConfig) (*VisionExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &VisionExtractor{
		client:  openai.NewClient(cfg.APIKey),
		httpcli: &http.Client{Timeout: timeout},
		model:   cfg.Model,
		logger:  cfg.Logger.With().Str("component", "ocr").Logger(),
	}, nil
}

// ExtractText implements TextExtractor.
func (e *VisionExtractor) ExtractText(ctx context.Context, imageURL string) (string, error) {
	if err := e.validateImage(ctx, imageURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		e.logger.Warn().Err(err).Str("image_url", imageURL).Msg("image rejected, extraction degraded to empty text")
		return "", nil
	}

	text, err := e.transcribe(ctx, imageURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		e.logger.Warn().Err(err).Str("image_url", imageURL).Msg("vision transcription failed, extraction degraded to empty text")
		return "", nil
	}

	return text, nil
}

func (e *VisionExtractor) validateImage(ctx context.Context, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("build image request: %w", err)
	}

	resp, err := e.httpcli.Do(req)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return fmt.Errorf("read image payload: %w", err)
	}

	if len(payload) < minImageBytes {
		return fmt.Errorf("image payload too small: %d bytes", len(payload))
	}

	mime := mimetype.Detect(payload)
	if !strings.HasPrefix(mime.String(), "image/") {
		return fmt.Errorf("unsupported content type: %s", mime.String())
	}

	return nil
}

func (e *VisionExtractor) transcribe(ctx context.Context, imageURL string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Transcribe all handwritten and printed text in this homework image. Output the text only, preserving the order of working steps.",
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned from vision model")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
