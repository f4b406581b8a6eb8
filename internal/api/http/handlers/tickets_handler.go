package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/studiodesk/studio-desk/internal/api/dto"
	"github.com/studiodesk/studio-desk/internal/export"
	"github.com/studiodesk/studio-desk/internal/service"
	"github.com/studiodesk/studio-desk/internal/ticketquery"
	apperrors "github.com/studiodesk/studio-desk/pkg/util/errorutil"
)

// TicketsHandler serves the ticket list view.
type TicketsHandler struct {
	service  *service.TicketService
	location *time.Location
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, location *time.Location) *TicketsHandler {
	return &TicketsHandler{service: ticketService, location: location}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	state, err := parseListState(c)
	if err != nil {
		return err
	}
	list, err := h.service.List(c.UserContext(), state)
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(list.Tickets))
	for _, t := range list.Tickets {
		items = append(items, dto.NewTicketResponse(t, list.AsOf))
	}
	filters := map[string]string{}
	for key, values := range state.Values() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Tickets: items,
		Meta: dto.TicketListMeta{
			Count:         len(items),
			Limit:         list.Limit,
			Truncated:     list.Truncated,
			ActiveFilters: list.ActiveFilters,
			Filters:       filters,
			AsOf:          list.AsOf,
		},
		Stats: list.Stats,
	}})
}

// Stats GET /api/tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	state, err := parseListState(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.UserContext(), state)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Export GET /api/tickets/export.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "format"})
	}
	state, err := parseListState(c)
	if err != nil {
		return err
	}
	list, err := h.service.List(c.UserContext(), state)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, list.Tickets, list.AsOf, h.location); err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", format.Filename(list.AsOf)))
	if list.Truncated {
		c.Set("X-Export-Truncated", "true")
	}
	return c.Send(buf.Bytes())
}

func parseListState(c *fiber.Ctx) (ticketquery.State, error) {
	state, err := ticketquery.ParseState(func(key string) string { return c.Query(key) })
	if err != nil {
		return ticketquery.State{}, validationFrom(err)
	}
	return state, nil
}

func validationFrom(err error) error {
	var invalid *ticketquery.InvalidStateError
	if errors.As(err, &invalid) {
		return apperrors.NewValidationError("invalid list filters", map[string]any{"problems": invalid.Problems})
	}
	return apperrors.NewValidationError(err.Error(), nil)
}
