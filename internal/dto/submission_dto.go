package dto

import (
	"time"

	"github.com/noah-isme/classhub-api/internal/models"
)

// SubmissionCreateRequest accompanies the multipart image upload.
type SubmissionCreateRequest struct {
	AssignmentID uint `json:"assignment_id" validate:"required"`
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	AssignmentID *uint   `json:"assignment_id"`
	StudentID    *uint   `json:"student_id"`
	Status       *string `json:"status" validate:"omitempty,oneof=grading graded grading_failed"`
}

// TeacherReviewRequest patches the teacher override onto a graded
// attempt. Both fields are applied unconditionally: a null score or
// feedback clears the override and the AI result shows again.
type TeacherReviewRequest struct {
	Score    *float64 `json:"teacher_score" validate:"omitempty,gte=0,lte=100"`
	Feedback *string  `json:"teacher_feedback" validate:"omitempty,max=10000"`
}

// SubmissionResponse is the public shape of one attempt. The effective
// score prefers the teacher override; the AI score stays visible so an
// override is transparent rather than destructive.
type SubmissionResponse struct {
	ID              uint                   `json:"id"`
	AssignmentID    uint                   `json:"assignment_id"`
	AssignmentTitle string                 `json:"assignment_title,omitempty"`
	StudentID       uint                   `json:"student_id"`
	StudentName     string                 `json:"student_name,omitempty"`
	FilePath        string                 `json:"file_path"`
	AttemptNumber   int                    `json:"attempt_number"`
	Status          string                 `json:"status"`
	AIScore         *float64               `json:"ai_score"`
	AIFeedback      string                 `json:"ai_feedback"`
	AIBreakdown     map[string]interface{} `json:"ai_breakdown,omitempty"`
	TeacherScore    *float64               `json:"teacher_score"`
	TeacherFeedback *string                `json:"teacher_feedback"`
	EffectiveScore  *float64               `json:"effective_score"`
	CreatedAt       time.Time              `json:"created_at"`
	GradedAt        *time.Time             `json:"graded_at"`
}

// SignedImageURLResponse carries a time-limited download link.
type SignedImageURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSubmissionResponse converts a submission model.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:              submission.ID,
		AssignmentID:    submission.AssignmentID,
		AssignmentTitle: submission.Assignment.Title,
		StudentID:       submission.StudentID,
		StudentName:     submission.Student.Name,
		FilePath:        submission.FilePath,
		AttemptNumber:   submission.AttemptNumber,
		Status:          submission.Status,
		AIScore:         submission.AIScore,
		AIFeedback:      submission.AIFeedback,
		AIBreakdown:     submission.AIBreakdown,
		TeacherScore:    submission.TeacherScore,
		TeacherFeedback: submission.TeacherFeedback,
		EffectiveScore:  submission.EffectiveScore(),
		CreatedAt:       submission.CreatedAt,
		GradedAt:        submission.GradedAt,
	}
}

// NewSubmissionResponseSlice converts a slice of submission models.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
