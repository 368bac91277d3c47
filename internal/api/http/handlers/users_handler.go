package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/service"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

// Locals keys the basic-auth middleware stores login credentials under.
const (
	LoginEmailKey    = "login_email"
	LoginPasswordKey = "login_password"
)

// UsersHandler exposes account and token endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.CreateUser(c.UserContext(), service.CreateUserInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPublicUser(user))
}

// Login handles POST /users/login. Credentials arrive via HTTP Basic auth.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	email, _ := c.Locals(LoginEmailKey).(string)
	password, _ := c.Locals(LoginPasswordKey).(string)

	user, err := h.auth.VerifyCredentials(c.UserContext(), email, password)
	if err != nil {
		return err
	}
	pair, err := h.auth.Login(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthTokenResponse(pair))
}

// Refresh handles POST /users/refresh.
func (h *UsersHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	pair, err := h.auth.Refresh(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthTokenResponse(pair))
}

// Test handles GET /users/test, a probe for bearer authentication.
func (h *UsersHandler) Test(c *fiber.Ctx) error {
	return c.SendString("authorized")
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.NewPublicUser(user))
}
