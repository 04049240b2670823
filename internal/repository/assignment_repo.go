package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classhub-api/internal/models"
)

// AssignmentRepository defines data operations for assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	ListByClasses(ctx context.Context, classIDs []uint) ([]models.Assignment, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Assignment, error)
	CountSubmissions(ctx context.Context, assignmentIDs []uint) (map[uint]int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Preload("Class").First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// ListByClasses returns assignments across the given classes ordered
// by ascending due date, the order students plan their work in.
func (r *assignmentRepository) ListByClasses(ctx context.Context, classIDs []uint) ([]models.Assignment, error) {
	if len(classIDs) == 0 {
		return []models.Assignment{}, nil
	}

	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Preload("Class").
		Where("class_id IN ?", classIDs).
		Order("due_date ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Preload("Class").
		Where("teacher_id = ?", teacherID).
		Order("due_date ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) CountSubmissions(ctx context.Context, assignmentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return counts, nil
	}

	type row struct {
		AssignmentID uint
		Total        int64
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Select("assignment_id, COUNT(*) AS total").
		Where("assignment_id IN ?", assignmentIDs).
		Group("assignment_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, r := range rows {
		counts[r.AssignmentID] = r.Total
	}

	return counts, nil
}
