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

// ClassHandler wires class HTTP routes.
type ClassHandler struct {
	service service.ClassService
	logger  zerolog.Logger
}

// NewClassHandler constructs the handler.
func NewClassHandler(service service.ClassService, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		logger:  logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register attaches class endpoints to the router group.
func (h *ClassHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Post("/join", h.join)
	router.Get("/:id/members", h.members)
}

func (h *ClassHandler) list(c *fiber.Ctx) error {
	callerID, role, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var (
		classes []dto.ClassResponse
		err     error
	)
	if role == models.RoleTeacher {
		classes, err = h.service.ListForTeacher(c.Context(), callerID)
	} else {
		classes, err = h.service.ListForStudent(c.Context(), callerID)
	}
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "classes retrieved", classes)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	callerID, role, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if role != models.RoleTeacher {
		return utils.SendError(c, fiber.StatusForbidden, "only teachers can create classes")
	}

	var payload dto.ClassCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	class, err := h.service.Create(c.Context(), callerID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class created", class)
}

func (h *ClassHandler) join(c *fiber.Ctx) error {
	callerID, role, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if role != models.RoleStudent {
		return utils.SendError(c, fiber.StatusForbidden, "only students can join classes")
	}

	var payload dto.ClassJoinRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	class, err := h.service.JoinByCode(c.Context(), callerID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "joined class", class)
}

func (h *ClassHandler) members(c *fiber.Ctx) error {
	callerID, _, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	members, err := h.service.Members(c.Context(), classID, callerID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "members retrieved", members)
}

func (h *ClassHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "already enrolled in this class")
	case errors.Is(err, service.ErrNotClassOwner):
		return utils.SendError(c, fiber.StatusForbidden, "class is owned by another teacher")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
