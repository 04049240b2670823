package ai

import "context"

// GradingInput contains the artefacts needed to score a homework
// submission: the text extracted from the uploaded image plus the
// assignment context the teacher configured.
type GradingInput struct {
	AssignmentTitle string
	Rubric          string
	AnswerKey       string
	ExtractedText   string
}

// Breakdown details how the overall score decomposes.
type Breakdown struct {
	Accuracy     float64 `json:"accuracy"`
	Methodology  float64 `json:"methodology"`
	Completeness float64 `json:"completeness"`
}

// GradingResult is the structured feedback returned by the scorer.
// Score is on the 0-100 scale shown to students.
type GradingResult struct {
	Score     float64    `json:"score"`
	Feedback  string     `json:"feedback"`
	Breakdown *Breakdown `json:"breakdown,omitempty"`
}

// Grader describes a model capable of scoring extracted submission
// text against an assignment's rubric and answer key.
type Grader interface {
	Grade(ctx context.Context, input GradingInput) (GradingResult, error)
}

// FallbackScore is the conservative default used when the scoring
// provider fails or returns an unparseable response.
const FallbackScore = 50

// FallbackResult is the result substituted when scoring degrades. The
// feedback states that automated grading was unavailable so a teacher
// knows to review manually.
func FallbackResult() GradingResult {
	return GradingResult{
		Score: FallbackScore,
		Feedback: "Automated grading was unavailable for this submission, so a provisional " +
			"score has been assigned. Your teacher will review this attempt manually.",
	}
}
