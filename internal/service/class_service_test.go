package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/repository"
	"github.com/noah-isme/classhub-api/internal/service"
)

func newClassFixture(t *testing.T) (service.ClassService, *gorm.DB, models.User, models.User) {
	t.Helper()

	db := setupServiceDB(t)

	teacher := models.User{Name: "Ms. Tan", Email: "tan@example.com", Role: models.RoleTeacher}
	student := models.User{Name: "Arif", Email: "arif@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)

	svc := service.NewClassService(repository.NewClassRepository(db), validator.New(), zerolog.Nop())

	return svc, db, teacher, student
}

func TestClassCreateGeneratesCode(t *testing.T) {
	svc, _, teacher, _ := newClassFixture(t)

	created, err := svc.Create(context.Background(), teacher.ID, dto.ClassCreateRequest{Name: "Algebra"})
	require.NoError(t, err)

	require.Len(t, created.Code, models.ClassCodeLength)
	require.Equal(t, strings.ToUpper(created.Code), created.Code)
	require.Equal(t, teacher.ID, created.TeacherID)
}

func TestClassJoinByCodeCaseInsensitive(t *testing.T) {
	svc, _, teacher, student := newClassFixture(t)

	created, err := svc.Create(context.Background(), teacher.ID, dto.ClassCreateRequest{Name: "Algebra"})
	require.NoError(t, err)

	joined, err := svc.JoinByCode(context.Background(), student.ID, dto.ClassJoinRequest{Code: strings.ToLower(created.Code)})
	require.NoError(t, err)
	require.Equal(t, created.ID, joined.ID)

	listed, err := svc.ListForStudent(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestClassJoinTwiceReturnsAlreadyEnrolled(t *testing.T) {
	svc, _, teacher, student := newClassFixture(t)

	created, err := svc.Create(context.Background(), teacher.ID, dto.ClassCreateRequest{Name: "Algebra"})
	require.NoError(t, err)

	_, err = svc.JoinByCode(context.Background(), student.ID, dto.ClassJoinRequest{Code: created.Code})
	require.NoError(t, err)

	_, err = svc.JoinByCode(context.Background(), student.ID, dto.ClassJoinRequest{Code: created.Code})
	require.ErrorIs(t, err, service.ErrAlreadyEnrolled)
}

func TestClassJoinUnknownCode(t *testing.T) {
	svc, _, _, student := newClassFixture(t)

	_, err := svc.JoinByCode(context.Background(), student.ID, dto.ClassJoinRequest{Code: "ZZZZZZ"})
	require.ErrorIs(t, err, service.ErrClassNotFound)
}

func TestClassMembersRequiresOwnership(t *testing.T) {
	svc, db, teacher, student := newClassFixture(t)

	created, err := svc.Create(context.Background(), teacher.ID, dto.ClassCreateRequest{Name: "Algebra"})
	require.NoError(t, err)

	_, err = svc.JoinByCode(context.Background(), student.ID, dto.ClassJoinRequest{Code: created.Code})
	require.NoError(t, err)

	members, err := svc.Members(context.Background(), created.ID, teacher.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, student.ID, members[0].UserID)

	other := models.User{Name: "Mr. Lim", Email: "lim@example.com", Role: models.RoleTeacher}
	require.NoError(t, db.Create(&other).Error)

	_, err = svc.Members(context.Background(), created.ID, other.ID)
	require.ErrorIs(t, err, service.ErrNotClassOwner)
}
