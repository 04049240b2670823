package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission states. A submission starts in grading and always ends in
// exactly one of graded or grading_failed; a teacher review adds
// override fields on top of graded without changing the status.
const (
	SubmissionStatusGrading       = "grading"
	SubmissionStatusGraded        = "graded"
	SubmissionStatusGradingFailed = "grading_failed"
)

// Submission is one numbered attempt by a student for an assignment.
// Attempts are never deleted; resubmission creates a new row with the
// next attempt number. The composite unique index backstops the
// transactional attempt-number allocation in the repository.
type Submission struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	AssignmentID    uint              `gorm:"not null;uniqueIndex:idx_submissions_attempt" json:"assignment_id"`
	StudentID       uint              `gorm:"not null;uniqueIndex:idx_submissions_attempt" json:"student_id"`
	FilePath        string            `gorm:"size:512" json:"file_path"`
	AttemptNumber   int               `gorm:"not null;uniqueIndex:idx_submissions_attempt" json:"attempt_number"`
	Status          string            `gorm:"size:32;not null" json:"status"`
	AIScore         *float64          `json:"ai_score"`
	AIFeedback      string            `gorm:"type:text" json:"ai_feedback"`
	AIBreakdown     datatypes.JSONMap `gorm:"type:json" json:"ai_breakdown,omitempty"`
	TeacherScore    *float64          `json:"teacher_score"`
	TeacherFeedback *string           `gorm:"type:text" json:"teacher_feedback"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	GradedAt        *time.Time        `json:"graded_at"`
	Assignment      Assignment        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student         User              `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsGraded reports whether the grading pipeline completed for this
// attempt.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// EffectiveScore returns the score shown to users: the teacher
// override when present, otherwise the AI score. The AI score is kept
// queryable even when overridden.
func (s Submission) EffectiveScore() *float64 {
	if s.TeacherScore != nil {
		return s.TeacherScore
	}
	return s.AIScore
}

// IsLate reports whether the attempt was created after the assignment
// deadline.
func (s Submission) IsLate(dueDate time.Time) bool {
	return s.CreatedAt.After(dueDate)
}
