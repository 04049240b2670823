package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/service"
	"github.com/noah-isme/classhub-api/internal/utils"
)

// AssignmentHandler wires assignment HTTP routes. Listing is
// role-aware: students see assignments with their own attempt history,
// teachers see their assignments with rubric and submission counts.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	callerID, role, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if role == models.RoleTeacher {
		assignments, err := h.service.ListForTeacher(c.Context(), callerID)
		if err != nil {
			return h.handleError(c, err)
		}
		return utils.SendSuccess(c, "assignments retrieved", assignments)
	}

	assignments, err := h.service.ListForStudent(c.Context(), callerID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	callerID, _, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Create(c.Context(), callerID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	callerID, _, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignmentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Update(c.Context(), id, callerID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrNotClassOwner):
		return utils.SendError(c, fiber.StatusForbidden, "class is owned by another teacher")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
