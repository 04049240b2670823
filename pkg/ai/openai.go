package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	scoringDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classhub",
		Subsystem: "ai",
		Name:      "scoring_duration_seconds",
		Help:      "Duration of AI scoring requests",
	}, []string{"model"})

	scoringFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classhub",
		Subsystem: "ai",
		Name:      "scoring_failures_total",
		Help:      "Number of AI scoring failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGrader implements Grader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a new grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 768
	}

	tracer := otel.Tracer("github.com/noah-isme/classhub-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGrader{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Grade sends the scoring request to OpenAI and parses the response.
func (g *OpenAIGrader) Grade(parent context.Context, input GradingInput) (GradingResult, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: graderSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	scoringDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		scoringFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, fmt.Errorf("openai grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		scoringFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseGradingResponse(content)
	if err != nil {
		scoringFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, err
	}

	return result, nil
}

func graderSystemPrompt() string {
	return "You are a helpful teaching assistant grading a student's homework. Grade the submission against the " +
		"answer key and rubric when provided. Respond with a JSON object containing score (0-100), feedback " +
		"(step-by-step, encouraging), and a breakdown object with accuracy, methodology and completeness scores."
}

func buildUserPrompt(input GradingInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Assignment\n")
	builder.WriteString(input.AssignmentTitle)
	if input.AnswerKey != "" {
		builder.WriteString("\n\n## Answer Key\n")
		builder.WriteString(input.AnswerKey)
	}
	if input.Rubric != "" {
		builder.WriteString("\n\n## Rubric\n")
		builder.WriteString(input.Rubric)
	}
	builder.WriteString("\n\n## Student Submission\n")
	if input.ExtractedText == "" {
		builder.WriteString("(no text could be extracted from the submitted image)")
	} else {
		builder.WriteString(input.ExtractedText)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseGradingResponse(content string) (GradingResult, error) {
	type payload struct {
		Score     float64    `json:"score"`
		Feedback  string     `json:"feedback"`
		Breakdown *Breakdown `json:"breakdown"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return GradingResult{}, fmt.Errorf("parse grading json: %w", err)
	}

	if data.Feedback == "" {
		return GradingResult{}, fmt.Errorf("grading response missing feedback")
	}

	return GradingResult{
		Score:     clampScore(data.Score),
		Feedback:  data.Feedback,
		Breakdown: data.Breakdown,
	}, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
