package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/studiodesk/studio-desk/internal/analytics"
	"github.com/studiodesk/studio-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTemplateCreated    EventType = "template_created"
	EventTemplateDuplicated EventType = "template_duplicated"
	EventTemplateDeleted    EventType = "template_deleted"
	EventTemplateUsed       EventType = "template_used"
	EventTemplatesReset     EventType = "templates_reset"
	EventAnalyticsRefreshed EventType = "analytics_refreshed"
)

// TemplateEventTypes lists the template lifecycle events.
var TemplateEventTypes = []EventType{
	EventTemplateCreated,
	EventTemplateDuplicated,
	EventTemplateDeleted,
	EventTemplateUsed,
	EventTemplatesReset,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	SessionID  string    `json:"session_id,omitempty"`
	TemplateID string    `json:"template_id,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id.
func New(eventType EventType, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: eventType, Timestamp: at}
}

// TemplateCreatedPayload payload.
type TemplateCreatedPayload struct {
	Name     string                `json:"name"`
	Category string                `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
}

// TemplateDuplicatedPayload payload.
type TemplateDuplicatedPayload struct {
	SourceID string `json:"source_id"`
}

// TemplateUsedPayload payload.
type TemplateUsedPayload struct {
	UsageCount   int `json:"usage_count"`
	Placeholders int `json:"placeholders"`
}

// AnalyticsRefreshedPayload payload.
type AnalyticsRefreshedPayload struct {
	Range    analytics.Range `json:"range"`
	Tickets  int             `json:"tickets"`
	Duration time.Duration   `json:"duration"`
}
