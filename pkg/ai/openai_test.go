package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGradingResponse(t *testing.T) {
	content := `{"score": 87, "feedback": "Well done", "breakdown": {"accuracy": 90, "methodology": 80, "completeness": 88}}`

	result, err := parseGradingResponse(content)
	require.NoError(t, err)
	require.Equal(t, 87.0, result.Score)
	require.Equal(t, "Well done", result.Feedback)
	require.NotNil(t, result.Breakdown)
	require.Equal(t, 90.0, result.Breakdown.Accuracy)
}

func TestParseGradingResponseClampsScore(t *testing.T) {
	result, err := parseGradingResponse(`{"score": 140, "feedback": "ok"}`)
	require.NoError(t, err)
	require.Equal(t, 100.0, result.Score)

	result, err = parseGradingResponse(`{"score": -3, "feedback": "ok"}`)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Score)
}

func TestParseGradingResponseRejectsGarbage(t *testing.T) {
	_, err := parseGradingResponse("not json at all")
	require.Error(t, err)

	_, err = parseGradingResponse(`{"score": 70}`)
	require.Error(t, err)
}

func TestBuildUserPromptMentionsMissingText(t *testing.T) {
	prompt := buildUserPrompt(GradingInput{AssignmentTitle: "Fractions"})
	require.Contains(t, prompt, "Fractions")
	require.Contains(t, prompt, "no text could be extracted")
}

func TestFallbackResult(t *testing.T) {
	result := FallbackResult()
	require.Equal(t, float64(FallbackScore), result.Score)
	require.NotEmpty(t, result.Feedback)
}
