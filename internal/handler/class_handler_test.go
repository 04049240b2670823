package handler_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classhub-api/internal/dto"
	"github.com/noah-isme/classhub-api/internal/models"
)

func TestClassHandlerCreateJoinAndRoster(t *testing.T) {
	app, _ := setupApp(t, &stubPipeline{})

	teacher := signUp(t, app, "Ms. Tan", "tan@example.com", models.RoleTeacher)
	student := signUp(t, app, "Arif", "arif@example.com", models.RoleStudent)

	class := createClass(t, app, teacher.Token, "Algebra")
	require.Len(t, class.Code, models.ClassCodeLength)

	// Join codes are case-insensitive on entry.
	joinClass(t, app, student.Token, strings.ToLower(class.Code))

	status, envelope := doJSON(t, app, "GET", "/api/v1/classes", student.Token, nil)
	require.Equal(t, fiber.StatusOK, status)

	var classes []dto.ClassResponse
	decodeData(t, envelope, &classes)
	require.Len(t, classes, 1)
	require.Equal(t, class.ID, classes[0].ID)

	status, envelope = doJSON(t, app, "GET", fmt.Sprintf("/api/v1/classes/%d/members", class.ID), teacher.Token, nil)
	require.Equal(t, fiber.StatusOK, status)

	var members []dto.ClassMemberResponse
	decodeData(t, envelope, &members)
	require.Len(t, members, 1)
	require.Equal(t, "arif@example.com", members[0].Email)
}

func TestClassHandlerJoinTwiceConflict(t *testing.T) {
	app, _ := setupApp(t, &stubPipeline{})

	teacher := signUp(t, app, "Ms. Tan", "tan@example.com", models.RoleTeacher)
	student := signUp(t, app, "Arif", "arif@example.com", models.RoleStudent)

	class := createClass(t, app, teacher.Token, "Algebra")
	joinClass(t, app, student.Token, class.Code)

	status, _ := doJSON(t, app, "POST", "/api/v1/classes/join", student.Token, dto.ClassJoinRequest{Code: class.Code})
	require.Equal(t, fiber.StatusConflict, status)
}

func TestClassHandlerUnknownCodeNotFound(t *testing.T) {
	app, _ := setupApp(t, &stubPipeline{})

	student := signUp(t, app, "Arif", "arif@example.com", models.RoleStudent)

	status, _ := doJSON(t, app, "POST", "/api/v1/classes/join", student.Token, dto.ClassJoinRequest{Code: "ZZZZZZ"})
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestClassHandlerRoleGates(t *testing.T) {
	app, _ := setupApp(t, &stubPipeline{})

	teacher := signUp(t, app, "Ms. Tan", "tan@example.com", models.RoleTeacher)
	student := signUp(t, app, "Arif", "arif@example.com", models.RoleStudent)

	status, _ := doJSON(t, app, "POST", "/api/v1/classes", student.Token, dto.ClassCreateRequest{Name: "Algebra"})
	require.Equal(t, fiber.StatusForbidden, status)

	class := createClass(t, app, teacher.Token, "Algebra")
	status, _ = doJSON(t, app, "POST", "/api/v1/classes/join", teacher.Token, dto.ClassJoinRequest{Code: class.Code})
	require.Equal(t, fiber.StatusForbidden, status)
}

func TestClassHandlerRosterForbiddenForOtherTeacher(t *testing.T) {
	app, _ := setupApp(t, &stubPipeline{})

	owner := signUp(t, app, "Ms. Tan", "tan@example.com", models.RoleTeacher)
	other := signUp(t, app, "Mr. Lim", "lim@example.com", models.RoleTeacher)

	class := createClass(t, app, owner.Token, "Algebra")

	status, _ := doJSON(t, app, "GET", fmt.Sprintf("/api/v1/classes/%d/members", class.ID), other.Token, nil)
	require.Equal(t, fiber.StatusForbidden, status)
}
