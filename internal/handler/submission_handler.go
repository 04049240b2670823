package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/repository"
	"github.com/noah-isme/classhub-api/internal/service"
	"github.com/noah-isme/classhub-api/internal/utils"
)

// SubmissionHandler wires submission HTTP routes. Creation is a
// multipart upload: the assignment id travels as a form field next to
// the image file.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id/image-url", h.imageURL)
	router.Patch("/:id/review", h.review)
}

// RegisterCreate attaches the upload endpoint separately so the router
// can rate-limit it.
func (h *SubmissionHandler) RegisterCreate(router fiber.Router) {
	router.Post("", h.create)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	callerID, role, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	filter := dto.SubmissionFilter{}

	assignmentID, err := parseQueryUint(c, "assignment_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	filter.AssignmentID = assignmentID

	studentID, err := parseQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	filter.StudentID = studentID

	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	submissions, err := h.service.List(c.Context(), callerID, role, filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	callerID, _, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	assignmentID, err := strconv.ParseUint(c.FormValue("assignment_id"), 10, 64)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment_id")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "submission image is required")
	}

	payload := dto.SubmissionCreateRequest{AssignmentID: uint(assignmentID)}
	submission, err := h.service.Create(c.Context(), callerID, payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) review(c *fiber.Ctx) error {
	callerID, _, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TeacherReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Review(c.Context(), id, callerID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review recorded", submission)
}

func (h *SubmissionHandler) imageURL(c *fiber.Ctx) error {
	callerID, role, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var expiresIn time.Duration
	if seconds, err := parseQueryUint(c, "expires"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	} else if seconds != nil {
		expiresIn = time.Duration(*seconds) * time.Second
	}

	signed, err := h.service.SignedImageURL(c.Context(), id, callerID, role, expiresIn)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "image url issued", signed)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrNotClassMember):
		return utils.SendError(c, fiber.StatusForbidden, "not enrolled in this class")
	case errors.Is(err, service.ErrNotClassOwner):
		return utils.SendError(c, fiber.StatusForbidden, "submission belongs to another teacher's assignment")
	case errors.Is(err, repository.ErrAttemptConflict):
		return utils.SendError(c, fiber.StatusConflict, "resubmission conflict, please retry")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
