package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/classhub-api/internal/models"
)

// ErrAttemptConflict indicates concurrent submissions collided on the
// same attempt number even after retrying.
var ErrAttemptConflict = errors.New("attempt number conflict")

// attemptInsertRetries bounds how often CreateAttempt re-reads the max
// attempt number after losing a race on the unique index.
const attemptInsertRetries = 3

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	AssignmentID  *uint
	StudentID     *uint
	Status        *string
	AssignmentIDs []uint
}

// SubmissionRepository defines data operations for submission
// attempts. The unique index on (assignment_id, student_id,
// attempt_number) is the arbiter of attempt numbering: CreateAttempt
// computes max+1 and relies on the constraint to reject a concurrent
// duplicate, retrying with a fresh read instead of trusting the
// racy read-then-write.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	ListAttempts(ctx context.Context, assignmentID, studentID uint) ([]models.Submission, error)
	CreateAttempt(ctx context.Context, submission *models.Submission) error
	SetGradingResult(ctx context.Context, submission *models.Submission) error
	SetTeacherReview(ctx context.Context, submission *models.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Assignment.Class").
		Preload("Student")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.AssignmentIDs != nil {
		query = query.Where("assignment_id IN ?", filter.AssignmentIDs)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// ListAttempts returns the full attempt history for one (assignment,
// student) pair, newest attempt number first; element 0 is the latest
// attempt.
func (r *submissionRepository) ListAttempts(ctx context.Context, assignmentID, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		Order("attempt_number DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) CreateAttempt(ctx context.Context, submission *models.Submission) error {
	for i := 0; i < attemptInsertRetries; i++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var maxAttempt int64
			if err := tx.Model(&models.Submission{}).
				Where("assignment_id = ?", submission.AssignmentID).
				Where("student_id = ?", submission.StudentID).
				Select("COALESCE(MAX(attempt_number), 0)").
				Scan(&maxAttempt).Error; err != nil {
				return err
			}

			submission.ID = 0
			submission.AttemptNumber = int(maxAttempt) + 1

			return tx.Create(submission).Error
		})

		if err == nil {
			return nil
		}

		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}

	return fmt.Errorf("%w for assignment %d student %d", ErrAttemptConflict, submission.AssignmentID, submission.StudentID)
}

// SetGradingResult persists the terminal grading status along with the
// AI fields. Only the grading columns are touched so a concurrent
// teacher review cannot be clobbered.
func (r *submissionRepository) SetGradingResult(ctx context.Context, submission *models.Submission) error {
	updates := map[string]interface{}{
		"status":       submission.Status,
		"ai_score":     submission.AIScore,
		"ai_feedback":  submission.AIFeedback,
		"ai_breakdown": submission.AIBreakdown,
		"graded_at":    submission.GradedAt,
		"updated_at":   time.Now(),
	}

	return r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", submission.ID).
		Updates(updates).Error
}

// SetTeacherReview persists the override columns only, so a review
// racing the grading pipeline cannot write back stale status or AI
// fields.
func (r *submissionRepository) SetTeacherReview(ctx context.Context, submission *models.Submission) error {
	updates := map[string]interface{}{
		"teacher_score":    submission.TeacherScore,
		"teacher_feedback": submission.TeacherFeedback,
		"updated_at":       time.Now(),
	}

	return r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", submission.ID).
		Updates(updates).Error
}
