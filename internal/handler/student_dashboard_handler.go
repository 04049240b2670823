package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classhub-api/internal/service"
	"github.com/noah-isme/classhub-api/internal/utils"
)

// StudentDashboardHandler serves the student home dashboard.
type StudentDashboardHandler struct {
	service service.StudentDashboardService
	logger  zerolog.Logger
}

// NewStudentDashboardHandler constructs the handler.
func NewStudentDashboardHandler(service service.StudentDashboardService, logger zerolog.Logger) *StudentDashboardHandler {
	return &StudentDashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "student_dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint to the router group.
func (h *StudentDashboardHandler) Register(router fiber.Router) {
	router.Get("", h.dashboard)
}

func (h *StudentDashboardHandler) dashboard(c *fiber.Ctx) error {
	callerID, _, ok := callerFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	dashboard, err := h.service.Dashboard(c.Context(), callerID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build student dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
