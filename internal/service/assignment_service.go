package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/repository"
)

// ErrAssignmentNotFound indicates an assignment could not be found.
var ErrAssignmentNotFound = errors.New("assignment not found")

// AssignmentService manages homework definitions.
type AssignmentService interface {
	Create(ctx context.Context, teacherID uint, payload dto.AssignmentCreateRequest) (dto.TeacherAssignmentResponse, error)
	Update(ctx context.Context, id, teacherID uint, payload dto.AssignmentUpdateRequest) (dto.TeacherAssignmentResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.StudentAssignmentResponse, error)
	ListForTeacher(ctx context.Context, teacherID uint) ([]dto.TeacherAssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	classes     repository.ClassRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	classes repository.ClassRepository,
	submissions repository.SubmissionRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		classes:     classes,
		submissions: submissions,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) Create(ctx context.Context, teacherID uint, payload dto.AssignmentCreateRequest) (dto.TeacherAssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TeacherAssignmentResponse{}, err
	}

	class, err := s.classes.GetByID(ctx, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TeacherAssignmentResponse{}, ErrClassNotFound
		}
		return dto.TeacherAssignmentResponse{}, err
	}

	if class.TeacherID != teacherID {
		return dto.TeacherAssignmentResponse{}, ErrNotClassOwner
	}

	assignment := models.Assignment{
		ClassID:     class.ID,
		TeacherID:   teacherID,
		Title:       payload.Title,
		Description: s.sanitizer.Sanitize(payload.Description),
		DueDate:     payload.DueDate,
		Rubric:      payload.Rubric,
		AnswerKey:   payload.AnswerKey,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.TeacherAssignmentResponse{}, err
	}

	assignment.Class = class
	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("class_id", class.ID).Msg("assignment created")

	return dto.TeacherAssignmentResponse{
		AssignmentResponse: dto.NewAssignmentResponse(assignment),
		Rubric:             assignment.Rubric,
		AnswerKey:          assignment.AnswerKey,
	}, nil
}

func (s *assignmentService) Update(ctx context.Context, id, teacherID uint, payload dto.AssignmentUpdateRequest) (dto.TeacherAssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TeacherAssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TeacherAssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.TeacherAssignmentResponse{}, err
	}

	if assignment.TeacherID != teacherID {
		return dto.TeacherAssignmentResponse{}, ErrNotClassOwner
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.DueDate != nil {
		assignment.DueDate = *payload.DueDate
	}
	if payload.Rubric != nil {
		assignment.Rubric = *payload.Rubric
	}
	if payload.AnswerKey != nil {
		assignment.AnswerKey = *payload.AnswerKey
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.TeacherAssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.TeacherAssignmentResponse{
		AssignmentResponse: dto.NewAssignmentResponse(assignment),
		Rubric:             assignment.Rubric,
		AnswerKey:          assignment.AnswerKey,
	}, nil
}

// ListForStudent returns assignments across the student's classes
// ordered by due date, each annotated with the student's attempt
// history newest-first so element 0 is the latest attempt.
func (s *assignmentService) ListForStudent(ctx context.Context, studentID uint) ([]dto.StudentAssignmentResponse, error) {
	classes, err := s.classes.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	classIDs := make([]uint, 0, len(classes))
	for _, class := range classes {
		classIDs = append(classIDs, class.ID)
	}

	assignments, err := s.assignments.ListByClasses(ctx, classIDs)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.StudentAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		attempts, err := s.submissions.ListAttempts(ctx, assignment.ID, studentID)
		if err != nil {
			return nil, err
		}

		response := dto.StudentAssignmentResponse{
			AssignmentResponse: dto.NewAssignmentResponse(assignment),
			Attempts:           dto.NewSubmissionResponseSlice(attempts),
		}
		if len(response.Attempts) > 0 {
			latest := response.Attempts[0]
			response.LatestAttempt = &latest
		}

		responses = append(responses, response)
	}

	return responses, nil
}

func (s *assignmentService) ListForTeacher(ctx context.Context, teacherID uint) ([]dto.TeacherAssignmentResponse, error) {
	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	assignmentIDs := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		assignmentIDs = append(assignmentIDs, assignment.ID)
	}

	counts, err := s.assignments.CountSubmissions(ctx, assignmentIDs)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TeacherAssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, dto.TeacherAssignmentResponse{
			AssignmentResponse: dto.NewAssignmentResponse(assignment),
			Rubric:             assignment.Rubric,
			AnswerKey:          assignment.AnswerKey,
			SubmissionCount:    counts[assignment.ID],
		})
	}

	return responses, nil
}
