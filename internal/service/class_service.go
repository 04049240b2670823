package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/repository"
)

// ErrClassNotFound indicates no class matches the given id or code.
var ErrClassNotFound = errors.New("class not found")

// ErrAlreadyEnrolled indicates the student already joined the class.
var ErrAlreadyEnrolled = errors.New("already enrolled in this class")

// ErrNotClassOwner indicates the caller does not own the class.
var ErrNotClassOwner = errors.New("class is owned by another teacher")

// classCodeAlphabet is the set of characters used in join codes.
// Uppercase alphanumerics keep codes easy to read out loud.
const classCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// classCodeRetries bounds regeneration when a generated code collides
// with an existing class.
const classCodeRetries = 3

// ClassService manages classes and enrollment.
type ClassService interface {
	Create(ctx context.Context, teacherID uint, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	JoinByCode(ctx context.Context, studentID uint, payload dto.ClassJoinRequest) (dto.ClassResponse, error)
	ListForTeacher(ctx context.Context, teacherID uint) ([]dto.ClassResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.ClassResponse, error)
	Members(ctx context.Context, classID, teacherID uint) ([]dto.ClassMemberResponse, error)
}

type classService struct {
	classes   repository.ClassRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewClassService constructs a ClassService instance.
func NewClassService(classes repository.ClassRepository, validate *validator.Validate, logger zerolog.Logger) ClassService {
	return &classService{
		classes:   classes,
		validator: validate,
		logger:    logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, teacherID uint, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	var class models.Class
	for i := 0; i < classCodeRetries; i++ {
		code, err := generateClassCode()
		if err != nil {
			return dto.ClassResponse{}, err
		}

		class = models.Class{
			Name:      payload.Name,
			Code:      code,
			TeacherID: teacherID,
		}

		err = s.classes.Create(ctx, &class)
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ClassResponse{}, err
		}
		if i == classCodeRetries-1 {
			return dto.ClassResponse{}, fmt.Errorf("failed to generate a unique class code: %w", err)
		}
	}

	s.logger.Info().Uint("class_id", class.ID).Str("class_code", class.Code).Msg("class created")

	return dto.NewClassResponse(class), nil
}

func (s *classService) JoinByCode(ctx context.Context, studentID uint, payload dto.ClassJoinRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	class, err := s.classes.GetByCode(ctx, payload.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrClassNotFound
		}
		return dto.ClassResponse{}, err
	}

	member := models.ClassMember{
		ClassID: class.ID,
		UserID:  studentID,
	}

	// The composite unique index arbitrates duplicate joins; a lost
	// race surfaces here as a constraint conflict, not a double row.
	if err := s.classes.AddMember(ctx, &member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ClassResponse{}, ErrAlreadyEnrolled
		}
		return dto.ClassResponse{}, err
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("student_id", studentID).Msg("student joined class")

	return dto.NewClassResponse(class), nil
}

func (s *classService) ListForTeacher(ctx context.Context, teacherID uint) ([]dto.ClassResponse, error) {
	classes, err := s.classes.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassResponseSlice(classes), nil
}

func (s *classService) ListForStudent(ctx context.Context, studentID uint) ([]dto.ClassResponse, error) {
	classes, err := s.classes.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassResponseSlice(classes), nil
}

func (s *classService) Members(ctx context.Context, classID, teacherID uint) ([]dto.ClassMemberResponse, error) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	if class.TeacherID != teacherID {
		return nil, ErrNotClassOwner
	}

	members, err := s.classes.ListMembers(ctx, classID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassMemberResponseSlice(members), nil
}

func generateClassCode() (string, error) {
	buf := make([]byte, models.ClassCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate class code: %w", err)
	}

	for i, b := range buf {
		buf[i] = classCodeAlphabet[int(b)%len(classCodeAlphabet)]
	}

	return string(buf), nil
}
