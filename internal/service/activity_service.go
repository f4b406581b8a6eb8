package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/studiodesk/studio-desk/internal/events"
	"github.com/studiodesk/studio-desk/internal/observability"
)

// ActivityService records template and analytics activity in logs and
// metrics.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.TemplateEventTypes {
		a.dispatcher.Subscribe(eventType, a.handleTemplateEvent)
	}
	a.dispatcher.Subscribe(events.EventAnalyticsRefreshed, a.handleAnalyticsRefreshed)
}

func (a *ActivityService) handleTemplateEvent(_ context.Context, event events.Event) error {
	a.metrics.RecordTemplateEvent(string(event.Type))
	a.logger.Info("template activity",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("session_id", event.SessionID),
		zap.String("template_id", event.TemplateID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *ActivityService) handleAnalyticsRefreshed(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AnalyticsRefreshedPayload)
	if !ok {
		a.logger.Debug("analytics refreshed", zap.String("event_id", event.ID))
		return nil
	}
	a.logger.Debug("analytics refreshed",
		zap.String("range", string(payload.Range)),
		zap.Int("tickets", payload.Tickets),
		zap.Duration("duration", payload.Duration))
	return nil
}
