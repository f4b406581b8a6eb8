package dto

import (
	"time"

	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/ticketstats"
)

// RefResponse is a denormalized reference on a ticket row.
type RefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TicketResponse is one row of the ticket list.
type TicketResponse struct {
	ID            string                `json:"id"`
	TicketNumber  string                `json:"ticket_number"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	Category      *RefResponse          `json:"category"`
	Subcategory   *RefResponse          `json:"subcategory"`
	Studio        *RefResponse          `json:"studio"`
	Assignee      *RefResponse          `json:"assignee"`
	Reporter      *RefResponse          `json:"reporter"`
	Source        string                `json:"source"`
	Tags          []string              `json:"tags"`
	CustomerName  string                `json:"customer_name"`
	CustomerEmail string                `json:"customer_email"`
	CustomerPhone string                `json:"customer_phone,omitempty"`
	Mood          string                `json:"mood,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ResolvedAt    *time.Time            `json:"resolved_at,omitempty"`
	SLADueAt      *time.Time            `json:"sla_due_at"`
	SLABreached   bool                  `json:"sla_breached"`
	SLAState      domain.SLAState       `json:"sla_state"`
}

// TicketListMeta describes the list response window.
type TicketListMeta struct {
	Count         int               `json:"count"`
	Limit         int               `json:"limit"`
	Truncated     bool              `json:"truncated"`
	ActiveFilters int               `json:"active_filters"`
	Filters       map[string]string `json:"filters"`
	AsOf          time.Time         `json:"as_of"`
}

// TicketListResponse is the ticket list payload.
type TicketListResponse struct {
	Tickets []TicketResponse  `json:"tickets"`
	Meta    TicketListMeta    `json:"meta"`
	Stats   ticketstats.Stats `json:"stats"`
}

// NewTicketResponse maps a ticket, judging its SLA position at now.
func NewTicketResponse(t domain.Ticket, now time.Time) TicketResponse {
	resp := TicketResponse{
		ID:            t.ID,
		TicketNumber:  t.TicketNumber,
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		Priority:      t.Priority,
		Source:        t.Source,
		Tags:          t.Tags,
		CustomerName:  t.CustomerName,
		CustomerEmail: t.CustomerEmail,
		CustomerPhone: t.CustomerPhone,
		Mood:          t.Mood,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		ResolvedAt:    t.ResolvedAt,
		SLADueAt:      t.SLADueAt,
		SLABreached:   t.SLABreached,
		SLAState:      t.SLAState(now),
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if t.Category != nil {
		resp.Category = &RefResponse{ID: t.Category.ID, Name: t.Category.Name}
	}
	if t.Subcategory != nil {
		resp.Subcategory = &RefResponse{ID: t.Subcategory.ID, Name: t.Subcategory.Name}
	}
	if t.Studio != nil {
		resp.Studio = &RefResponse{ID: t.Studio.ID, Name: t.Studio.Name}
	}
	if t.Assignee != nil {
		resp.Assignee = &RefResponse{ID: t.Assignee.ID, Name: t.Assignee.Name}
	}
	if t.Reporter != nil {
		resp.Reporter = &RefResponse{ID: t.Reporter.ID, Name: t.Reporter.Name}
	}
	return resp
}
