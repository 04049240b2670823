package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/repository"
)

// TeacherDashboardService aggregates activity across a teacher's
// classes.
type TeacherDashboardService interface {
	Dashboard(ctx context.Context, teacherID uint) (dto.TeacherDashboardResponse, error)
}

type teacherDashboardService struct {
	classes     repository.ClassRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewTeacherDashboardService constructs the service. The redis client
// may be nil; caching is then skipped entirely.
func NewTeacherDashboardService(
	classes repository.ClassRepository,
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) TeacherDashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &teacherDashboardService{
		classes:     classes,
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "teacher_dashboard_service").Logger(),
	}
}

func (s *teacherDashboardService) Dashboard(ctx context.Context, teacherID uint) (dto.TeacherDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:teacher:%d", teacherID)

	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	response, err := s.build(ctx, teacherID)
	if err != nil {
		return dto.TeacherDashboardResponse{}, err
	}

	s.toCache(ctx, cacheKey, response)

	return response, nil
}

func (s *teacherDashboardService) build(ctx context.Context, teacherID uint) (dto.TeacherDashboardResponse, error) {
	classes, err := s.classes.ListByTeacher(ctx, teacherID)
	if err != nil {
		return dto.TeacherDashboardResponse{}, err
	}

	students, err := s.classes.CountStudents(ctx, teacherID)
	if err != nil {
		return dto.TeacherDashboardResponse{}, err
	}

	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return dto.TeacherDashboardResponse{}, err
	}

	assignmentIDs := make([]uint, 0, len(assignments))
	dueDates := make(map[uint]time.Time, len(assignments))
	for _, assignment := range assignments {
		assignmentIDs = append(assignmentIDs, assignment.ID)
		dueDates[assignment.ID] = assignment.DueDate
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentIDs: assignmentIDs})
	if err != nil {
		return dto.TeacherDashboardResponse{}, err
	}

	late := 0
	for _, submission := range submissions {
		if due, ok := dueDates[submission.AssignmentID]; ok && submission.IsLate(due) {
			late++
		}
	}

	recent := submissions
	if len(recent) > recentAttemptsLimit {
		recent = recent[:recentAttemptsLimit]
	}

	return dto.TeacherDashboardResponse{
		TotalClasses:      len(classes),
		TotalStudents:     int(students),
		TotalAssignments:  len(assignments),
		TotalSubmissions:  len(submissions),
		AverageScore:      averageEffectiveScore(submissions),
		LateSubmissions:   late,
		RecentSubmissions: dto.NewSubmissionResponseSlice(recent),
	}, nil
}

func (s *teacherDashboardService) fromCache(ctx context.Context, key string) (dto.TeacherDashboardResponse, bool) {
	if s.cache == nil {
		return dto.TeacherDashboardResponse{}, false
	}

	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache read failed")
		}
		return dto.TeacherDashboardResponse{}, false
	}

	var response dto.TeacherDashboardResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return dto.TeacherDashboardResponse{}, false
	}

	return response, true
}

func (s *teacherDashboardService) toCache(ctx context.Context, key string, response dto.TeacherDashboardResponse) {
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
