package service

import (
	"context"
	"time"

	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/repository"
	"github.com/studiodesk/studio-desk/internal/ticketquery"
	"github.com/studiodesk/studio-desk/internal/ticketstats"
)

// TicketList is one ticket list response. Stats are computed over the
// returned rows only; AsOf is the instant SLA positions are judged at.
type TicketList struct {
	Tickets       []domain.Ticket
	AsOf          time.Time
	Truncated     bool
	Limit         int
	ActiveFilters int
	Stats         ticketstats.Stats
}

// TicketService serves the ticket list view.
type TicketService struct {
	tickets repository.TicketRepository
	fetcher *Fetcher
	builder ticketquery.Builder
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, fetcher *Fetcher, builder ticketquery.Builder) *TicketService {
	return &TicketService{tickets: tickets, fetcher: fetcher, builder: builder}
}

// List fetches the tickets matching state. A failed fetch returns no rows.
func (s *TicketService) List(ctx context.Context, state ticketquery.State) (*TicketList, error) {
	q := s.builder.Build(state)
	page, err := fetch(ctx, s.fetcher, "tickets", func(ctx context.Context) (repository.TicketPage, error) {
		return s.tickets.List(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &TicketList{
		Tickets:       page.Tickets,
		AsOf:          now,
		Truncated:     page.Truncated,
		Limit:         q.Limit,
		ActiveFilters: state.ActiveFilters(),
		Stats:         ticketstats.Compute(page.Tickets, now),
	}, nil
}

// Stats returns only the stats strip for state.
func (s *TicketService) Stats(ctx context.Context, state ticketquery.State) (ticketstats.Stats, error) {
	list, err := s.List(ctx, state)
	if err != nil {
		return ticketstats.Stats{}, err
	}
	return list.Stats, nil
}

func (s *TicketService) now() time.Time {
	if s.builder.Now != nil {
		return s.builder.Now()
	}
	return time.Now()
}
