package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/repository"
	"github.com/noah-isme/classhub-api/internal/service"
)

type dashboardFixture struct {
	db      *gorm.DB
	cache   *redis.Client
	mini    *miniredis.Miniredis
	teacher models.User
	student models.User
	class   models.Class
	aTask   models.Assignment
}

func newDashboardFixture(t *testing.T) *dashboardFixture {
	t.Helper()

	db := setupServiceDB(t)

	mini := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	teacher := models.User{Name: "Ms. Tan", Email: "tan@example.com", Role: models.RoleTeacher}
	student := models.User{Name: "Arif", Email: "arif@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)

	class := models.Class{Name: "Algebra", Code: "ALG101", TeacherID: teacher.ID}
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&models.ClassMember{ClassID: class.ID, UserID: student.ID}).Error)

	assignment := models.Assignment{
		ClassID:   class.ID,
		TeacherID: teacher.ID,
		Title:     "Quadratics worksheet",
		DueDate:   time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(&assignment).Error)

	return &dashboardFixture{
		db:      db,
		cache:   cache,
		mini:    mini,
		teacher: teacher,
		student: student,
		class:   class,
		aTask:   assignment,
	}
}

func (f *dashboardFixture) seedSubmission(t *testing.T, aiScore, teacherScore *float64, status string, createdAt time.Time, attempt int) {
	t.Helper()

	submission := models.Submission{
		AssignmentID:  f.aTask.ID,
		StudentID:     f.student.ID,
		AttemptNumber: attempt,
		Status:        status,
		AIScore:       aiScore,
		TeacherScore:  teacherScore,
	}
	require.NoError(t, f.db.Create(&submission).Error)
	require.NoError(t, f.db.Model(&models.Submission{}).
		Where("id = ?", submission.ID).
		Update("created_at", createdAt).Error)
}

func floatPtr(v float64) *float64 { return &v }

func TestStudentDashboardAverageUsesEffectiveScores(t *testing.T) {
	fx := newDashboardFixture(t)
	now := time.Now()

	// Effective scores are 80 (teacher override beats 90) and 70 (AI
	// only), so the average is 75.
	fx.seedSubmission(t, floatPtr(90), floatPtr(80), models.SubmissionStatusGraded, now, 1)
	fx.seedSubmission(t, floatPtr(70), nil, models.SubmissionStatusGraded, now, 2)

	svc := service.NewStudentDashboardService(
		repository.NewClassRepository(fx.db),
		repository.NewAssignmentRepository(fx.db),
		repository.NewSubmissionRepository(fx.db),
		fx.cache,
		time.Minute,
		zerolog.Nop(),
	)

	dashboard, err := svc.Dashboard(context.Background(), fx.student.ID)
	require.NoError(t, err)

	require.Equal(t, 1, dashboard.ActiveClasses)
	require.Equal(t, 75, dashboard.AverageScore)
	require.Equal(t, 1, dashboard.CompletedAssignments)
	require.Equal(t, 0, dashboard.PendingAssignments)
	require.Len(t, dashboard.RecentAttempts, 2)
}

func TestStudentDashboardDayStreak(t *testing.T) {
	fx := newDashboardFixture(t)
	now := time.Now()

	// Activity today, yesterday, and three days ago: the gap at day
	// two stops the streak at two.
	fx.seedSubmission(t, floatPtr(60), nil, models.SubmissionStatusGraded, now, 1)
	fx.seedSubmission(t, floatPtr(60), nil, models.SubmissionStatusGraded, now.AddDate(0, 0, -1), 2)
	fx.seedSubmission(t, floatPtr(60), nil, models.SubmissionStatusGraded, now.AddDate(0, 0, -3), 3)

	svc := service.NewStudentDashboardService(
		repository.NewClassRepository(fx.db),
		repository.NewAssignmentRepository(fx.db),
		repository.NewSubmissionRepository(fx.db),
		fx.cache,
		time.Minute,
		zerolog.Nop(),
	)

	dashboard, err := svc.Dashboard(context.Background(), fx.student.ID)
	require.NoError(t, err)
	require.Equal(t, 2, dashboard.DayStreak)
}

func TestStudentDashboardCompletedFollowsHighestAttempt(t *testing.T) {
	fx := newDashboardFixture(t)
	now := time.Now()

	// A backdated timestamp on the higher attempt must not matter: the
	// attempt number decides which one is latest, and it failed.
	fx.seedSubmission(t, floatPtr(70), nil, models.SubmissionStatusGraded, now, 1)
	fx.seedSubmission(t, nil, nil, models.SubmissionStatusGradingFailed, now.Add(-time.Hour), 2)

	svc := service.NewStudentDashboardService(
		repository.NewClassRepository(fx.db),
		repository.NewAssignmentRepository(fx.db),
		repository.NewSubmissionRepository(fx.db),
		fx.cache,
		time.Minute,
		zerolog.Nop(),
	)

	dashboard, err := svc.Dashboard(context.Background(), fx.student.ID)
	require.NoError(t, err)
	require.Equal(t, 0, dashboard.CompletedAssignments)
	require.Equal(t, 1, dashboard.PendingAssignments)
}

func TestStudentDashboardStreakIgnoresFailedAttempts(t *testing.T) {
	fx := newDashboardFixture(t)
	now := time.Now()

	// Today holds only a failed attempt; the streak starts at yesterday
	// and is broken immediately, so nothing counts.
	fx.seedSubmission(t, nil, nil, models.SubmissionStatusGradingFailed, now, 1)
	fx.seedSubmission(t, floatPtr(60), nil, models.SubmissionStatusGraded, now.AddDate(0, 0, -2), 2)

	svc := service.NewStudentDashboardService(
		repository.NewClassRepository(fx.db),
		repository.NewAssignmentRepository(fx.db),
		repository.NewSubmissionRepository(fx.db),
		fx.cache,
		time.Minute,
		zerolog.Nop(),
	)

	dashboard, err := svc.Dashboard(context.Background(), fx.student.ID)
	require.NoError(t, err)
	require.Equal(t, 0, dashboard.DayStreak)
}

func TestStudentDashboardServedFromCache(t *testing.T) {
	fx := newDashboardFixture(t)
	fx.seedSubmission(t, floatPtr(80), nil, models.SubmissionStatusGraded, time.Now(), 1)

	svc := service.NewStudentDashboardService(
		repository.NewClassRepository(fx.db),
		repository.NewAssignmentRepository(fx.db),
		repository.NewSubmissionRepository(fx.db),
		fx.cache,
		time.Minute,
		zerolog.Nop(),
	)

	first, err := svc.Dashboard(context.Background(), fx.student.ID)
	require.NoError(t, err)
	require.Equal(t, 80, first.AverageScore)

	// A new submission is invisible until the cache entry expires.
	fx.seedSubmission(t, floatPtr(40), nil, models.SubmissionStatusGraded, time.Now(), 2)

	cached, err := svc.Dashboard(context.Background(), fx.student.ID)
	require.NoError(t, err)
	require.Equal(t, 80, cached.AverageScore)

	fx.mini.FastForward(2 * time.Minute)

	fresh, err := svc.Dashboard(context.Background(), fx.student.ID)
	require.NoError(t, err)
	require.Equal(t, 60, fresh.AverageScore)
}

func TestTeacherDashboardAggregates(t *testing.T) {
	fx := newDashboardFixture(t)
	now := time.Now()

	// One on-time graded attempt and one late failed attempt.
	fx.seedSubmission(t, floatPtr(90), nil, models.SubmissionStatusGraded, now, 1)
	fx.seedSubmission(t, nil, nil, models.SubmissionStatusGradingFailed, fx.aTask.DueDate.Add(time.Hour), 2)

	svc := service.NewTeacherDashboardService(
		repository.NewClassRepository(fx.db),
		repository.NewAssignmentRepository(fx.db),
		repository.NewSubmissionRepository(fx.db),
		fx.cache,
		time.Minute,
		zerolog.Nop(),
	)

	dashboard, err := svc.Dashboard(context.Background(), fx.teacher.ID)
	require.NoError(t, err)

	require.Equal(t, 1, dashboard.TotalClasses)
	require.Equal(t, 1, dashboard.TotalStudents)
	require.Equal(t, 1, dashboard.TotalAssignments)
	require.Equal(t, 2, dashboard.TotalSubmissions)
	require.Equal(t, 90, dashboard.AverageScore)
	require.Equal(t, 1, dashboard.LateSubmissions)
	require.Len(t, dashboard.RecentSubmissions, 2)
}

func TestDashboardWithoutCacheClient(t *testing.T) {
	fx := newDashboardFixture(t)
	fx.seedSubmission(t, floatPtr(80), nil, models.SubmissionStatusGraded, time.Now(), 1)

	svc := service.NewStudentDashboardService(
		repository.NewClassRepository(fx.db),
		repository.NewAssignmentRepository(fx.db),
		repository.NewSubmissionRepository(fx.db),
		nil,
		time.Minute,
		zerolog.Nop(),
	)

	dashboard, err := svc.Dashboard(context.Background(), fx.student.ID)
	require.NoError(t, err)
	require.Equal(t, 80, dashboard.AverageScore)
}
