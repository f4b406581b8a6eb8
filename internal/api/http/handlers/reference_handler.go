package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/studiodesk/studio-desk/internal/api/dto"
	"github.com/studiodesk/studio-desk/internal/service"
)

// ReferenceHandler serves the filter dropdown lists.
type ReferenceHandler struct {
	service *service.ReferenceService
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(referenceService *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: referenceService}
}

// Categories GET /api/categories.
func (h *ReferenceHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.UserContext())
	if err != nil {
		return err
	}
	subcategories, err := h.service.Subcategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponses(categories, subcategories)})
}

// Studios GET /api/studios.
func (h *ReferenceHandler) Studios(c *fiber.Ctx) error {
	studios, err := h.service.Studios(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStudioResponses(studios)})
}

// Users GET /api/users.
func (h *ReferenceHandler) Users(c *fiber.Ctx) error {
	users, err := h.service.Users(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, dto.NewUserResponse(u))
	}
	return c.JSON(fiber.Map{"data": items})
}
