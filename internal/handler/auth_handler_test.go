package handler_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/models"
)

func TestAuthHandlerSignUpSignInMe(t *testing.T) {
	app, _ := setupApp(t, &stubPipeline{})

	auth := signUp(t, app, "Arif", "arif@example.com", models.RoleStudent)
	require.Equal(t, models.RoleStudent, auth.User.Role)

	status, envelope := doJSON(t, app, "POST", "/api/v1/auth/signin", "", dto.SignInRequest{
		Email:    "arif@example.com",
		Password: "correct-horse",
	})
	require.Equal(t, fiber.StatusOK, status)

	var signedIn dto.AuthResponse
	decodeData(t, envelope, &signedIn)

	status, envelope = doJSON(t, app, "GET", "/api/v1/auth/me", signedIn.Token, nil)
	require.Equal(t, fiber.StatusOK, status)

	var profile dto.UserResponse
	decodeData(t, envelope, &profile)
	require.Equal(t, "arif@example.com", profile.Email)
}

func TestAuthHandlerDuplicateEmailConflict(t *testing.T) {
	app, _ := setupApp(t, &stubPipeline{})

	signUp(t, app, "Arif", "arif@example.com", models.RoleStudent)

	status, envelope := doJSON(t, app, "POST", "/api/v1/auth/signup", "", dto.SignUpRequest{
		Name:     "Imposter",
		Email:    "arif@example.com",
		Password: "correct-horse",
		Role:     models.RoleStudent,
	})
	require.Equal(t, fiber.StatusConflict, status)
	require.False(t, envelope.Success)
}

func TestAuthHandlerWrongPasswordUnauthorized(t *testing.T) {
	app, _ := setupApp(t, &stubPipeline{})

	signUp(t, app, "Arif", "arif@example.com", models.RoleStudent)

	status, _ := doJSON(t, app, "POST", "/api/v1/auth/signin", "", dto.SignInRequest{
		Email:    "arif@example.com",
		Password: "wrong-horse",
	})
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuthHandlerMeRequiresToken(t *testing.T) {
	app, _ := setupApp(t, &stubPipeline{})

	status, _ := doJSON(t, app, "GET", "/api/v1/auth/me", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
}
