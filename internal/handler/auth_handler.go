package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/middleware"
	"github.com/noah-isme/classhub-api/internal/service"
	"github.com/noah-isme/classhub-api/internal/utils"
)

// AuthHandler wires the authentication HTTP routes.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublic attaches the unauthenticated endpoints.
func (h *AuthHandler) RegisterPublic(router fiber.Router) {
	router.Post("/signup", h.signUp)
	router.Post("/signin", h.signIn)
}

// RegisterProtected attaches the endpoints requiring a valid token.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Get("/me", h.me)
}

func (h *AuthHandler) signUp(c *fiber.Ctx) error {
	var payload dto.SignUpRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.SignUp(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", response)
}

func (h *AuthHandler) signIn(c *fiber.Ctx) error {
	var payload dto.SignInRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.SignIn(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "signed in", response)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	profile, err := h.service.Profile(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return utils.SendError(c, fiber.StatusConflict, "email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "user not found")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
