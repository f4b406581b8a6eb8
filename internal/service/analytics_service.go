package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/studiodesk/studio-desk/internal/analytics"
	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/events"
	"github.com/studiodesk/studio-desk/internal/observability"
	"github.com/studiodesk/studio-desk/internal/repository"
	"github.com/studiodesk/studio-desk/internal/ticketquery"
)

// AnalyticsService serves dashboard snapshots from the cache, computing
// them from the full ticket population on a miss.
type AnalyticsService struct {
	tickets    repository.TicketRepository
	fetcher    *Fetcher
	cache      analytics.Cache
	ttl        time.Duration
	location   *time.Location
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// AnalyticsDependencies bundles collaborators for the analytics service.
type AnalyticsDependencies struct {
	Tickets    repository.TicketRepository
	Fetcher    *Fetcher
	Cache      analytics.Cache
	TTL        time.Duration
	Location   *time.Location
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	s := &AnalyticsService{
		tickets:    deps.Tickets,
		fetcher:    deps.Fetcher,
		cache:      deps.Cache,
		ttl:        deps.TTL,
		location:   deps.Location,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if s.cache == nil {
		s.cache = analytics.NewMemoryCache()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Snapshot returns the analytics for a range and optional studio.
func (s *AnalyticsService) Snapshot(ctx context.Context, r analytics.Range, studioID domain.Option[string]) (analytics.Snapshot, error) {
	w := analytics.Window{Range: r, StudioID: studioID, Location: s.location}
	snap, ok, err := s.cache.Get(ctx, w.Key())
	if err != nil {
		s.logger.Warn("analytics cache read failed", zap.String("key", w.Key()), zap.Error(err))
	}
	if ok {
		return snap, nil
	}
	snap, _, err = s.compute(ctx, w)
	return snap, err
}

// Refresh recomputes the all-studio snapshot of every range. It keeps going
// after a failed range and returns the joined errors.
func (s *AnalyticsService) Refresh(ctx context.Context) error {
	var errs []error
	for _, r := range analytics.Ranges {
		start := time.Now()
		w := analytics.Window{Range: r, Location: s.location}
		_, count, err := s.compute(ctx, w)
		s.metrics.RecordSnapshotRun(err)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		event := events.New(events.EventAnalyticsRefreshed, s.now())
		event.Payload = events.AnalyticsRefreshedPayload{Range: r, Tickets: count, Duration: time.Since(start)}
		s.publishEvent(ctx, event)
	}
	return errors.Join(errs...)
}

func (s *AnalyticsService) compute(ctx context.Context, w analytics.Window) (analytics.Snapshot, int, error) {
	now := s.now()
	from := w.Range.Start(now)
	q := ticketquery.Query{CreatedFrom: &from}
	if id, ok := w.StudioID.Get(); ok {
		q.Equals = append(q.Equals, ticketquery.Equality{Column: ticketquery.ColumnStudioID, Value: id})
	}

	page, err := fetch(ctx, s.fetcher, "analytics_tickets", func(ctx context.Context) (repository.TicketPage, error) {
		return s.tickets.List(ctx, q)
	})
	if err != nil {
		return analytics.Snapshot{}, 0, err
	}

	snap := analytics.Compute(page.Tickets, w, now)
	if err := s.cache.Set(ctx, w.Key(), snap, s.ttl); err != nil {
		s.logger.Warn("analytics cache write failed", zap.String("key", w.Key()), zap.Error(err))
	}
	return snap, len(page.Tickets), nil
}

func (s *AnalyticsService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
