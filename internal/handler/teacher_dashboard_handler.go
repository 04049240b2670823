package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classhub-api/internal/service"
	"github.com/noah-isme/classhub-api/internal/utils"
)

// TeacherDashboardHandler serves the teacher overview dashboard.
type TeacherDashboardHandler struct {
	service service.TeacherDashboardService
	logger  zerolog.Logger
}

// NewTeacherDashboardHandler constructs the handler.
func NewTeacherDashboardHandler(service service.TeacherDashboardService, logger zerolog.Logger) *TeacherDashboardHandler {
	return &TeacherDashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "teacher_dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint to the router group.
func (h *TeacherDashboardHandler) Register(router fiber.Router) {
	router.Get("", h.dashboard)
}

func (h *TeacherDashboardHandler) dashboard(c *fiber.Ctx) error {
	callerID, _, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	dashboard, err := h.service.Dashboard(c.Context(), callerID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build teacher dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
