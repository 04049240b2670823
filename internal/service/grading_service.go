package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/classhub-api/pkg/ai"
	"github.com/noah-isme/classhub-api/pkg/ocr"
)

// scoringAttempts is how many times the scoring stage is tried before
// degrading to the fallback result.
const scoringAttempts = 2

// GradingPipeline runs the two-stage image-to-score pipeline:
// extraction (image URL to text) feeding scoring (text to
// score/feedback). Both stages degrade rather than fail: extraction
// yields empty text, scoring yields the fallback result. The returned
// error is non-nil only when the context is cancelled, which is the
// single condition that marks a submission grading_failed.
type GradingPipeline interface {
	Grade(ctx context.Context, imageURL string, input ai.GradingInput) (ai.GradingResult, error)
}

type gradingPipeline struct {
	extractor ocr.TextExtractor
	grader    ai.Grader
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewGradingPipeline composes the extraction and scoring stages.
func NewGradingPipeline(extractor ocr.TextExtractor, grader ai.Grader, logger zerolog.Logger) GradingPipeline {
	return &gradingPipeline{
		extractor: extractor,
		grader:    grader,
		tracer:    otel.Tracer("github.com/noah-isme/classhub-api/internal/service/grading"),
		logger:    logger.With().Str("component", "grading_pipeline").Logger(),
	}
}

func (p *gradingPipeline) Grade(parent context.Context, imageURL string, input ai.GradingInput) (ai.GradingResult, error) {
	ctx, span := p.tracer.Start(parent, "grading.pipeline", trace.WithAttributes(
		attribute.String("assignment.title", input.AssignmentTitle),
	))
	defer span.End()

	text, err := p.extractor.ExtractText(ctx, imageURL)
	if err != nil {
		return ai.GradingResult{}, err
	}

	if text == "" {
		p.logger.Warn().Str("image_url", imageURL).Msg("extraction produced no text, scoring proceeds on empty submission")
	}

	input.ExtractedText = text

	for attempt := 1; attempt <= scoringAttempts; attempt++ {
		result, err := p.grader.Grade(ctx, input)
		if err == nil {
			span.SetAttributes(attribute.Float64("grading.score", result.Score))
			return result, nil
		}

		if ctx.Err() != nil {
			return ai.GradingResult{}, ctx.Err()
		}

		p.logger.Warn().Err(err).Int("attempt", attempt).Msg("scoring stage failed")
	}

	span.SetAttributes(attribute.Bool("grading.fallback", true))
	p.logger.Error().Str("image_url", imageURL).Msg("scoring degraded to fallback result")

	return ai.FallbackResult(), nil
}
