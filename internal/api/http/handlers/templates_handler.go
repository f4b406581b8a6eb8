package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/studiodesk/studio-desk/internal/api/dto"
	"github.com/studiodesk/studio-desk/internal/auth"
	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/service"
	"github.com/studiodesk/studio-desk/internal/templates"
	apperrors "github.com/studiodesk/studio-desk/pkg/util/errorutil"
)

// TemplatesHandler serves the per-session template catalog.
type TemplatesHandler struct {
	service *service.TemplateService
}

// NewTemplatesHandler constructs handler.
func NewTemplatesHandler(templateService *service.TemplateService) *TemplatesHandler {
	return &TemplatesHandler{service: templateService}
}

// List GET /api/templates?search=&category=&priority=.
func (h *TemplatesHandler) List(c *fiber.Ctx) error {
	filter := templates.Filter{Search: c.Query("search")}
	if category := strings.TrimSpace(c.Query("category")); category != "" && category != "all" {
		filter.Category = domain.Some(category)
	}
	if raw := strings.TrimSpace(c.Query("priority")); raw != "" && raw != "all" {
		priority, err := domain.ParseTicketPriority(raw)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), map[string]any{"field": "priority"})
		}
		filter.Priority = domain.Some(priority)
	}

	listing, err := h.service.List(c.UserContext(), actorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTemplateListResponse(listing.Templates, listing.Categories, listing.Total, listing.AsOf)})
}

// Categories GET /api/templates/categories.
func (h *TemplatesHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	if categories == nil {
		categories = []string{}
	}
	return c.JSON(fiber.Map{"data": categories})
}

// Create POST /api/templates.
func (h *TemplatesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.service.Create(c.UserContext(), actorFrom(c), req.Draft())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTemplateResponse(created, created.CreatedAt)})
}

// Duplicate POST /api/templates/:id/duplicate.
func (h *TemplatesHandler) Duplicate(c *fiber.Ctx) error {
	dup, err := h.service.Duplicate(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTemplateResponse(dup, dup.CreatedAt)})
}

// Use POST /api/templates/:id/use.
func (h *TemplatesHandler) Use(c *fiber.Ctx) error {
	prefill, usage, err := h.service.Use(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPrefillResponse(prefill, usage)})
}

// Delete DELETE /api/templates/:id. A missing id is a no-op.
func (h *TemplatesHandler) Delete(c *fiber.Ctx) error {
	if _, err := h.service.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reset POST /api/templates/reset.
func (h *TemplatesHandler) Reset(c *fiber.Ctx) error {
	listing, err := h.service.Reset(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTemplateListResponse(listing.Templates, listing.Categories, listing.Total, listing.AsOf)})
}

func actorFrom(c *fiber.Ctx) service.Actor {
	actor := service.Actor{SessionID: SessionIDFromContext(c)}
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		actor.UserID = principal.User.ID
	}
	return actor
}
