package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/observability"
	"github.com/noah-isme/classhub-api/internal/repository"
	"github.com/noah-isme/classhub-api/pkg/ai"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrNotClassMember indicates the student is not enrolled in the
// assignment's class.
var ErrNotClassMember = errors.New("not enrolled in this class")

// SubmissionService orchestrates the submission lifecycle: attempt
// numbering, upload, grading, and teacher review. Every created
// submission reaches exactly one terminal status, graded or
// grading_failed; no path leaves a row parked in grading.
type SubmissionService interface {
	Create(ctx context.Context, studentID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	List(ctx context.Context, callerID uint, callerRole string, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Review(ctx context.Context, submissionID, teacherID uint, payload dto.TeacherReviewRequest) (dto.SubmissionResponse, error)
	SignedImageURL(ctx context.Context, submissionID, callerID uint, callerRole string, expiresIn time.Duration) (dto.SignedImageURLResponse, error)
}

type submissionService struct {
	submissions    repository.SubmissionRepository
	assignments    repository.AssignmentRepository
	classes        repository.ClassRepository
	pipeline       GradingPipeline
	storage        FileStorage
	events         EventPublisher
	validator      *validator.Validate
	sanitizer      *bluemonday.Policy
	logger         zerolog.Logger
	gradingTimeout time.Duration
	signedURLTTL   time.Duration
	now            func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	classes repository.ClassRepository,
	pipeline GradingPipeline,
	storage FileStorage,
	events EventPublisher,
	validate *validator.Validate,
	gradingTimeout time.Duration,
	signedURLTTL time.Duration,
	logger zerolog.Logger,
) SubmissionService {
	if gradingTimeout <= 0 {
		gradingTimeout = 45 * time.Second
	}
	if signedURLTTL <= 0 {
		signedURLTTL = time.Hour
	}

	return &submissionService{
		submissions:    submissions,
		assignments:    assignments,
		classes:        classes,
		pipeline:       pipeline,
		storage:        storage,
		events:         events,
		validator:      validate,
		sanitizer:      bluemonday.StrictPolicy(),
		logger:         logger.With().Str("component", "submission_service").Logger(),
		gradingTimeout: gradingTimeout,
		signedURLTTL:   signedURLTTL,
		now:            time.Now,
	}
}

func (s *submissionService) Create(ctx context.Context, studentID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if file == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("submission image is required")
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	enrolled, err := s.classes.IsMember(ctx, assignment.ClassID, studentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrNotClassMember
	}

	if err := validateImageFile(file); err != nil {
		return dto.SubmissionResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	key := submissionKey(assignment.ID, studentID, file.Filename, s.now())
	path, publicURL, err := s.storage.Upload(ctx, key, reader)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload image: %w", err)
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    studentID,
		FilePath:     path,
		Status:       models.SubmissionStatusGrading,
	}

	// The row is durable before grading starts: even a crashed
	// pipeline never loses a student's upload.
	if err := s.submissions.CreateAttempt(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("attempt_number", submission.AttemptNumber).
		Msg("submission created, grading started")

	s.grade(ctx, &submission, assignment, publicURL)

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(created), nil
}

// grade runs the pipeline and always records a terminal status.
func (s *submissionService) grade(ctx context.Context, submission *models.Submission, assignment models.Assignment, imageURL string) {
	gradeCtx, cancel := context.WithTimeout(ctx, s.gradingTimeout)
	defer cancel()

	start := s.now()
	result, err := s.pipeline.Grade(gradeCtx, imageURL, ai.GradingInput{
		AssignmentTitle: assignment.Title,
		Rubric:          assignment.Rubric,
		AnswerKey:       assignment.AnswerKey,
	})

	if err != nil {
		submission.Status = models.SubmissionStatusGradingFailed
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("grading pipeline failed")
	} else {
		now := s.now()
		submission.Status = models.SubmissionStatusGraded
		submission.AIScore = &result.Score
		submission.AIFeedback = result.Feedback
		submission.GradedAt = &now
		if result.Breakdown != nil {
			submission.AIBreakdown = datatypes.JSONMap{
				"accuracy":     result.Breakdown.Accuracy,
				"methodology":  result.Breakdown.Methodology,
				"completeness": result.Breakdown.Completeness,
			}
		}
	}

	observability.GradingOutcomes().WithLabelValues(submission.Status).Inc()
	observability.GradingDuration().WithLabelValues(submission.Status).Observe(s.now().Sub(start).Seconds())

	// The terminal status is written with the parent context so a
	// pipeline timeout cannot also starve the status update.
	if err := s.submissions.SetGradingResult(ctx, submission); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to persist grading result")
		return
	}

	s.events.PublishSubmissionGraded(*submission)
}

func (s *submissionService) List(ctx context.Context, callerID uint, callerRole string, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	}

	switch callerRole {
	case models.RoleTeacher:
		// Teachers only ever see submissions to their own assignments.
		assignments, err := s.assignments.ListByTeacher(ctx, callerID)
		if err != nil {
			return nil, err
		}
		owned := make([]uint, 0, len(assignments))
		for _, assignment := range assignments {
			owned = append(owned, assignment.ID)
		}
		repoFilter.AssignmentIDs = owned
	default:
		repoFilter.StudentID = &callerID
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// Review applies the teacher override. Both fields are patched
// unconditionally: nil clears, so removing an override restores the AI
// score for display. The grading status is never touched and the AI
// fields stay intact for transparency.
func (s *submissionService) Review(ctx context.Context, submissionID, teacherID uint, payload dto.TeacherReviewRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.Assignment.TeacherID != teacherID {
		return dto.SubmissionResponse{}, ErrNotClassOwner
	}

	submission.TeacherScore = payload.Score
	if payload.Feedback != nil {
		clean := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Feedback))
		submission.TeacherFeedback = &clean
	} else {
		submission.TeacherFeedback = nil
	}

	if err := s.submissions.SetTeacherReview(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("teacher_id", teacherID).
		Msg("teacher review recorded")

	updated, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) SignedImageURL(ctx context.Context, submissionID, callerID uint, callerRole string, expiresIn time.Duration) (dto.SignedImageURLResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SignedImageURLResponse{}, ErrSubmissionNotFound
		}
		return dto.SignedImageURLResponse{}, err
	}

	authorized := submission.StudentID == callerID ||
		(callerRole == models.RoleTeacher && submission.Assignment.TeacherID == callerID)
	if !authorized {
		return dto.SignedImageURLResponse{}, ErrSubmissionNotFound
	}

	if expiresIn <= 0 {
		expiresIn = s.signedURLTTL
	}

	url, err := s.storage.SignedURL(ctx, submission.FilePath, expiresIn)
	if err != nil {
		return dto.SignedImageURLResponse{}, fmt.Errorf("failed to sign image url: %w", err)
	}

	return dto.SignedImageURLResponse{
		URL:       url,
		ExpiresAt: s.now().Add(expiresIn),
	}, nil
}

func submissionKey(assignmentID, studentID uint, filename string, now time.Time) string {
	ext := "jpg"
	if idx := strings.LastIndex(filename, "."); idx >= 0 && idx < len(filename)-1 {
		ext = strings.ToLower(filename[idx+1:])
	}
	return fmt.Sprintf("%d/%d/%d.%s", assignmentID, studentID, now.Unix(), ext)
}

func validateImageFile(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}
