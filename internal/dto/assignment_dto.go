package dto

import (
	"time"

	"github.com/noah-isme/classhub-api/internal/models"
)

// AssignmentCreateRequest publishes homework to a class. Rubric and
// answer key are optional grading aids consumed by the AI pipeline.
type AssignmentCreateRequest struct {
	ClassID     uint      `json:"class_id" validate:"required"`
	Title       string    `json:"title" validate:"required,min=2,max=255"`
	Description string    `json:"description" validate:"max=10000"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	Rubric      string    `json:"rubric" validate:"max=20000"`
	AnswerKey   string    `json:"answer_key" validate:"max=20000"`
}

// AssignmentUpdateRequest patches mutable assignment fields.
type AssignmentUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=2,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=10000"`
	DueDate     *time.Time `json:"due_date"`
	Rubric      *string    `json:"rubric" validate:"omitempty,max=20000"`
	AnswerKey   *string    `json:"answer_key" validate:"omitempty,max=20000"`
}

// AssignmentResponse is the base assignment shape.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	ClassID     uint      `json:"class_id"`
	ClassName   string    `json:"class_name,omitempty"`
	TeacherID   uint      `json:"teacher_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	HasRubric   bool      `json:"has_rubric"`
	CreatedAt   time.Time `json:"created_at"`
}

// StudentAssignmentResponse annotates an assignment with the caller's
// attempt history, newest attempt first. Attempts[0] is always the
// latest attempt when any exist.
type StudentAssignmentResponse struct {
	AssignmentResponse
	Attempts      []SubmissionResponse `json:"attempts"`
	LatestAttempt *SubmissionResponse  `json:"latest_attempt,omitempty"`
}

// TeacherAssignmentResponse annotates an assignment with submission
// volume for the teacher's review queue.
type TeacherAssignmentResponse struct {
	AssignmentResponse
	Rubric          string `json:"rubric"`
	AnswerKey       string `json:"answer_key"`
	SubmissionCount int64  `json:"submission_count"`
}

// NewAssignmentResponse converts an assignment model.
func NewAssignmentResponse(assignment models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          assignment.ID,
		ClassID:     assignment.ClassID,
		ClassName:   assignment.Class.Name,
		TeacherID:   assignment.TeacherID,
		Title:       assignment.Title,
		Description: assignment.Description,
		DueDate:     assignment.DueDate,
		HasRubric:   assignment.Rubric != "",
		CreatedAt:   assignment.CreatedAt,
	}
}
