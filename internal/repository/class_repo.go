package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/classhub-api/internal/models"
)

// ClassRepository defines data operations for classes and rosters.
// Enrollment uniqueness is enforced by the composite index on
// class_members, so AddMember surfaces gorm.ErrDuplicatedKey on a
// repeat join instead of relying on a check-then-insert.
type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	GetByID(ctx context.Context, id uint) (models.Class, error)
	GetByCode(ctx context.Context, code string) (models.Class, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Class, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Class, error)
	AddMember(ctx context.Context, member *models.ClassMember) error
	IsMember(ctx context.Context, classID, userID uint) (bool, error)
	ListMembers(ctx context.Context, classID uint) ([]models.ClassMember, error)
	CountStudents(ctx context.Context, teacherID uint) (int64, error)
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository instantiates the repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).Preload("Teacher").First(&class, id).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) GetByCode(ctx context.Context, code string) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&class).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Members").
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&classes).Error; err != nil {
		return nil, err
	}

	return classes, nil
}

func (r *classRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.WithContext(ctx).
		Preload("Teacher").
		Joins("JOIN class_members ON class_members.class_id = classes.id").
		Where("class_members.user_id = ?", studentID).
		Order("class_members.created_at DESC").
		Find(&classes).Error; err != nil {
		return nil, err
	}

	return classes, nil
}

func (r *classRepository) AddMember(ctx context.Context, member *models.ClassMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *classRepository) IsMember(ctx context.Context, classID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ClassMember{}).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *classRepository) ListMembers(ctx context.Context, classID uint) ([]models.ClassMember, error) {
	var members []models.ClassMember
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("class_id = ?", classID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}

func (r *classRepository) CountStudents(ctx context.Context, teacherID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ClassMember{}).
		Joins("JOIN classes ON classes.id = class_members.class_id").
		Where("classes.teacher_id = ?", teacherID).
		Distinct("class_members.user_id").
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
