package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/studiodesk/studio-desk/internal/api/dto"
	"github.com/studiodesk/studio-desk/internal/service"
	apperrors "github.com/studiodesk/studio-desk/pkg/util/errorutil"
)

// AuthHandler exposes dashboard login.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		User: dto.NewUserResponse(*user),
		Auth: dto.AuthResponse{Token: token.Value, ExpiresAt: token.ExpiresAt},
	}})
}
