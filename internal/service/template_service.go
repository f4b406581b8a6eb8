package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/events"
	"github.com/studiodesk/studio-desk/internal/templates"
	apperrors "github.com/studiodesk/studio-desk/pkg/util/errorutil"
)

// TemplateListing is the template management screen payload.
type TemplateListing struct {
	Templates  []domain.Template
	Categories []string
	Total      int
	AsOf       time.Time
}

// Actor identifies who touched a session catalog.
type Actor struct {
	SessionID string
	UserID    string
}

// TemplateService runs catalog operations inside dashboard sessions.
type TemplateService struct {
	sessions   *templates.Sessions
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewTemplateService constructs the service.
func NewTemplateService(sessions *templates.Sessions, dispatcher events.Dispatcher, logger *zap.Logger, now func() time.Time) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &TemplateService{sessions: sessions, dispatcher: dispatcher, logger: logger, now: now}
}

// List returns the templates matching f in catalog order.
func (s *TemplateService) List(ctx context.Context, actor Actor, f templates.Filter) (*TemplateListing, error) {
	var listing TemplateListing
	err := s.sessions.View(ctx, actor.SessionID, func(c *templates.Catalog) error {
		listing.Templates = c.List(f)
		listing.Categories = c.Categories()
		listing.Total = c.Len()
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	listing.AsOf = s.now()
	return &listing, nil
}

// Categories returns the distinct categories of the session catalog.
func (s *TemplateService) Categories(ctx context.Context, actor Actor) ([]string, error) {
	var categories []string
	err := s.sessions.View(ctx, actor.SessionID, func(c *templates.Catalog) error {
		categories = c.Categories()
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return categories, nil
}

// Create adds a custom template.
func (s *TemplateService) Create(ctx context.Context, actor Actor, draft templates.Draft) (domain.Template, error) {
	var created domain.Template
	err := s.sessions.Update(ctx, actor.SessionID, func(c *templates.Catalog) error {
		t, err := c.Create(draft)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), map[string]any{"field": createErrorField(err)})
		}
		created = t
		return nil
	})
	if err != nil {
		return domain.Template{}, storeError(err)
	}
	s.publish(ctx, actor, events.EventTemplateCreated, created.ID, events.TemplateCreatedPayload{
		Name:     created.Name,
		Category: created.Category,
		Priority: created.Priority,
	})
	return created, nil
}

// Duplicate copies an existing template.
func (s *TemplateService) Duplicate(ctx context.Context, actor Actor, id string) (domain.Template, error) {
	var dup domain.Template
	err := s.sessions.Update(ctx, actor.SessionID, func(c *templates.Catalog) error {
		t, ok := c.Duplicate(id)
		if !ok {
			return apperrors.NewNotFound("template", map[string]any{"id": id})
		}
		dup = t
		return nil
	})
	if err != nil {
		return domain.Template{}, storeError(err)
	}
	s.publish(ctx, actor, events.EventTemplateDuplicated, dup.ID, events.TemplateDuplicatedPayload{SourceID: id})
	return dup, nil
}

// Delete removes a template. Deleting a missing id reports false and no
// error.
func (s *TemplateService) Delete(ctx context.Context, actor Actor, id string) (bool, error) {
	var removed bool
	err := s.sessions.Update(ctx, actor.SessionID, func(c *templates.Catalog) error {
		ok, err := c.Delete(id)
		if errors.Is(err, templates.ErrBuiltinProtected) {
			return apperrors.NewForbidden(err.Error())
		}
		removed = ok
		return err
	})
	if err != nil {
		return false, storeError(err)
	}
	if removed {
		s.publish(ctx, actor, events.EventTemplateDeleted, id, nil)
	}
	return removed, nil
}

// Use records a template use and returns the new-ticket prefill.
func (s *TemplateService) Use(ctx context.Context, actor Actor, id string) (templates.Prefill, int, error) {
	var prefill templates.Prefill
	var usage int
	err := s.sessions.Update(ctx, actor.SessionID, func(c *templates.Catalog) error {
		p, ok := c.SelectForUse(id)
		if !ok {
			return apperrors.NewNotFound("template", map[string]any{"id": id})
		}
		prefill = p
		t, _ := c.Get(id)
		usage = t.UsageCount
		return nil
	})
	if err != nil {
		return templates.Prefill{}, 0, storeError(err)
	}
	s.publish(ctx, actor, events.EventTemplateUsed, id, events.TemplateUsedPayload{
		UsageCount:   usage,
		Placeholders: len(prefill.Placeholders),
	})
	return prefill, usage, nil
}

// Reset restores the built-in catalog for the session.
func (s *TemplateService) Reset(ctx context.Context, actor Actor) (*TemplateListing, error) {
	var listing TemplateListing
	err := s.sessions.Update(ctx, actor.SessionID, func(c *templates.Catalog) error {
		c.Reset()
		listing.Templates = c.Snapshot()
		listing.Categories = c.Categories()
		listing.Total = c.Len()
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	listing.AsOf = s.now()
	s.publish(ctx, actor, events.EventTemplatesReset, "", nil)
	return &listing, nil
}

func (s *TemplateService) publish(ctx context.Context, actor Actor, eventType events.EventType, templateID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.New(eventType, s.now())
	event.SessionID = actor.SessionID
	event.ActorID = actor.UserID
	event.TemplateID = templateID
	event.Payload = payload
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func createErrorField(err error) string {
	switch {
	case errors.Is(err, templates.ErrNameRequired):
		return "name"
	case errors.Is(err, templates.ErrInvalidPriority):
		return "priority"
	default:
		return "sla_hours"
	}
}

// storeError passes domain errors through and reports session store
// failures as a retryable fetch failure.
func storeError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeout("template session request cancelled")
	}
	return apperrors.NewFetchFailed("template_sessions", err)
}
