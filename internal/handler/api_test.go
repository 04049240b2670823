package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/classhub-api/internal/config"
	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/handler"
	"github.com/noah-isme/classhub-api/internal/middleware"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/repository"
	"github.com/noah-isme/classhub-api/internal/router"
	"github.com/noah-isme/classhub-api/internal/service"
	"github.com/noah-isme/classhub-api/pkg/ai"
)

const testSecret = "handler-test-secret"

type stubPipeline struct {
	result ai.GradingResult
	err    error
}

func (s *stubPipeline) Grade(_ context.Context, _ string, _ ai.GradingInput) (ai.GradingResult, error) {
	if s.err != nil {
		return ai.GradingResult{}, s.err
	}
	return s.result, nil
}

type stubStorage struct{}

func (s *stubStorage) Upload(_ context.Context, key string, _ io.Reader) (string, string, error) {
	return key, "https://files.test/" + key, nil
}

func (s *stubStorage) PublicURL(path string) string {
	return "https://files.test/" + path
}

func (s *stubStorage) SignedURL(_ context.Context, path string, expiresIn time.Duration) (string, error) {
	return fmt.Sprintf("https://files.test/%s?sig=test&ttl=%d", path, int(expiresIn.Seconds())), nil
}

func setupApp(t *testing.T, pipeline service.GradingPipeline) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassMember{},
		&models.Assignment{},
		&models.Submission{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	publisher := service.NewEventPublisher(nil, logger)

	authService := service.NewAuthService(userRepo, validate, testSecret, time.Hour, logger)
	classService := service.NewClassService(classRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, classRepo, submissionRepo, validate, logger)
	submissionService := service.NewSubmissionService(
		submissionRepo, assignmentRepo, classRepo,
		pipeline, &stubStorage{}, publisher, validate,
		time.Second, time.Hour, logger)
	studentDashboardService := service.NewStudentDashboardService(classRepo, assignmentRepo, submissionRepo, nil, time.Minute, logger)
	teacherDashboardService := service.NewTeacherDashboardService(classRepo, assignmentRepo, submissionRepo, nil, time.Minute, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		AuthHandler:             handler.NewAuthHandler(authService, logger),
		ClassHandler:            handler.NewClassHandler(classService, logger),
		AssignmentHandler:       handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:       handler.NewSubmissionHandler(submissionService, logger),
		StudentDashboardHandler: handler.NewStudentDashboardHandler(studentDashboardService, logger),
		TeacherDashboardHandler: handler.NewTeacherDashboardHandler(teacherDashboardService, logger),
		JWTMiddleware:           middleware.JWTProtected(testSecret),
	})

	return app, db
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) (int, apiEnvelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	return resp.StatusCode, envelope
}

func decodeData(t *testing.T, envelope apiEnvelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func signUp(t *testing.T, app *fiber.App, name, email, role string) dto.AuthResponse {
	t.Helper()

	status, envelope := doJSON(t, app, "POST", "/api/v1/auth/signup", "", dto.SignUpRequest{
		Name:     name,
		Email:    email,
		Password: "correct-horse",
		Role:     role,
	})
	require.Equal(t, fiber.StatusCreated, status)

	var auth dto.AuthResponse
	decodeData(t, envelope, &auth)
	require.NotEmpty(t, auth.Token)

	return auth
}

func createClass(t *testing.T, app *fiber.App, token, name string) dto.ClassResponse {
	t.Helper()

	status, envelope := doJSON(t, app, "POST", "/api/v1/classes", token, dto.ClassCreateRequest{Name: name})
	require.Equal(t, fiber.StatusCreated, status)

	var class dto.ClassResponse
	decodeData(t, envelope, &class)

	return class
}

func joinClass(t *testing.T, app *fiber.App, token, code string) {
	t.Helper()

	status, _ := doJSON(t, app, "POST", "/api/v1/classes/join", token, dto.ClassJoinRequest{Code: code})
	require.Equal(t, fiber.StatusOK, status)
}

func createAssignment(t *testing.T, app *fiber.App, token string, classID uint) dto.TeacherAssignmentResponse {
	t.Helper()

	status, envelope := doJSON(t, app, "POST", "/api/v1/assignments", token, dto.AssignmentCreateRequest{
		ClassID:     classID,
		Title:       "Quadratics worksheet",
		Description: "Solve all five problems and show your working.",
		DueDate:     time.Now().Add(48 * time.Hour),
		Rubric:      "Accuracy 50%, working 50%",
		AnswerKey:   "x = 2 or x = -3",
	})
	require.Equal(t, fiber.StatusCreated, status)

	var assignment dto.TeacherAssignmentResponse
	decodeData(t, envelope, &assignment)

	return assignment
}

func uploadSubmission(t *testing.T, app *fiber.App, token string, assignmentID uint) (int, apiEnvelope) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("assignment_id", strconv.FormatUint(uint64(assignmentID), 10)))

	part, err := writer.CreateFormFile("image", "answers.png")
	require.NoError(t, err)
	payload := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0x42}, 600)...)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/submissions", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	return resp.StatusCode, envelope
}
