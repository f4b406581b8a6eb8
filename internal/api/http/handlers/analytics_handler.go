package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/studiodesk/studio-desk/internal/analytics"
	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/service"
	apperrors "github.com/studiodesk/studio-desk/pkg/util/errorutil"
)

// AnalyticsHandler serves the analytics dashboard.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: analyticsService}
}

// Snapshot GET /api/analytics?range=&studio_id=.
func (h *AnalyticsHandler) Snapshot(c *fiber.Ctx) error {
	r, err := analytics.ParseRange(c.Query("range"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "range"})
	}
	studio := domain.None[string]()
	if id := strings.TrimSpace(c.Query("studio_id")); id != "" && id != "all" {
		studio = domain.Some(id)
	}

	snap, err := h.service.Snapshot(c.UserContext(), r, studio)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snap})
}
