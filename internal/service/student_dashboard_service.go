package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/repository"
)

// recentAttemptsLimit caps the recent-activity lists on both
// dashboards.
const recentAttemptsLimit = 5

// StudentDashboardService aggregates a student's standing across all
// enrolled classes.
type StudentDashboardService interface {
	Dashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	classes     repository.ClassRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentDashboardService constructs the service. The redis client
// may be nil; caching is then skipped entirely.
func NewStudentDashboardService(
	classes repository.ClassRepository,
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) StudentDashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &studentDashboardService{
		classes:     classes,
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentDashboardService) Dashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", studentID)

	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	response, err := s.build(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	s.toCache(ctx, cacheKey, response)

	return response, nil
}

func (s *studentDashboardService) build(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	classes, err := s.classes.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	classIDs := make([]uint, 0, len(classes))
	for _, class := range classes {
		classIDs = append(classIDs, class.ID)
	}

	assignments, err := s.assignments.ListByClasses(ctx, classIDs)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	// One pass over the student's attempts gives the latest attempt per
	// assignment, latest meaning the highest attempt number.
	latestByAssignment := make(map[uint]models.Submission)
	for _, submission := range submissions {
		if current, seen := latestByAssignment[submission.AssignmentID]; !seen || submission.AttemptNumber > current.AttemptNumber {
			latestByAssignment[submission.AssignmentID] = submission
		}
	}

	completed := 0
	for _, assignment := range assignments {
		latest, ok := latestByAssignment[assignment.ID]
		if !ok {
			continue
		}
		if latest.Status == models.SubmissionStatusGraded || latest.Status == models.SubmissionStatusGrading {
			completed++
		}
	}

	recent := submissions
	if len(recent) > recentAttemptsLimit {
		recent = recent[:recentAttemptsLimit]
	}

	return dto.StudentDashboardResponse{
		ActiveClasses:        len(classes),
		PendingAssignments:   len(assignments) - completed,
		CompletedAssignments: completed,
		AverageScore:         averageEffectiveScore(submissions),
		DayStreak:            dayStreak(submissions, s.now()),
		RecentAttempts:       dto.NewSubmissionResponseSlice(recent),
	}, nil
}

func (s *studentDashboardService) fromCache(ctx context.Context, key string) (dto.StudentDashboardResponse, bool) {
	if s.cache == nil {
		return dto.StudentDashboardResponse{}, false
	}

	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache read failed")
		}
		return dto.StudentDashboardResponse{}, false
	}

	var response dto.StudentDashboardResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return dto.StudentDashboardResponse{}, false
	}

	return response, true
}

func (s *studentDashboardService) toCache(ctx context.Context, key string, response dto.StudentDashboardResponse) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(response)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache write failed")
	}
}

// averageEffectiveScore returns the rounded mean of effective scores
// over graded attempts that carry a score. No scored attempts yields
// zero.
func averageEffectiveScore(submissions []models.Submission) int {
	sum := 0.0
	count := 0
	for _, submission := range submissions {
		if !submission.IsGraded() {
			continue
		}
		score := submission.EffectiveScore()
		if score == nil {
			continue
		}
		sum += *score
		count++
	}

	if count == 0 {
		return 0
	}

	return int(math.Round(sum / float64(count)))
}

// dayStreak counts consecutive calendar days with at least one graded
// or still-grading submission, walking back from today. Failed
// attempts do not count; a day without activity breaks the streak and
// today itself counts only if active.
func dayStreak(submissions []models.Submission, now time.Time) int {
	days := make(map[string]bool, len(submissions))
	for _, submission := range submissions {
		if submission.Status == models.SubmissionStatusGradingFailed {
			continue
		}
		days[submission.CreatedAt.Format("2006-01-02")] = true
	}

	streak := 0
	for day := now; days[day.Format("2006-01-02")]; day = day.AddDate(0, 0, -1) {
		streak++
	}

	return streak
}
