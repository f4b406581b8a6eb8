package ticketstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/studiodesk/studio-desk/internal/domain"
)

func TestComputeTenTicketWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-2 * time.Hour)
	future := now.Add(2 * time.Hour)

	tickets := []domain.Ticket{
		{Status: domain.TicketStatusNew, Priority: domain.TicketPriorityCritical, SLADueAt: &past},
		{Status: domain.TicketStatusNew, Priority: domain.TicketPriorityLow},
		{Status: domain.TicketStatusNew, Priority: domain.TicketPriorityMedium, SLADueAt: &future},
		{Status: domain.TicketStatusAssigned, Priority: domain.TicketPriorityHigh},
		{Status: domain.TicketStatusAssigned, Priority: domain.TicketPriorityMedium, SLABreached: true},
		{Status: domain.TicketStatusInProgress, Priority: domain.TicketPriorityCritical},
		{Status: domain.TicketStatusInProgress, Priority: domain.TicketPriorityLow, SLADueAt: &future},
		{Status: domain.TicketStatusResolved, Priority: domain.TicketPriorityHigh, SLADueAt: &past},
		{Status: domain.TicketStatusClosed, Priority: domain.TicketPriorityMedium, SLABreached: true},
		{Status: domain.TicketStatusPendingCustomer, Priority: domain.TicketPriorityLow},
	}

	stats := Compute(tickets, now)

	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 3, stats.New)
	assert.Equal(t, 4, stats.InProgress)
	assert.Equal(t, 2, stats.Resolved)
	assert.Equal(t, 2, stats.Overdue)
	assert.Equal(t, 2, stats.Critical)
	assert.Equal(t, ScopeLoadedWindow, stats.Scope)
	assert.Equal(t, 10, stats.WindowSize)
}

func TestComputeEmptyWindow(t *testing.T) {
	stats := Compute(nil, time.Now())

	assert.Equal(t, Stats{Scope: ScopeLoadedWindow}, stats)
}

func TestDoneTicketsAreNeverOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	stats := Compute([]domain.Ticket{
		{Status: domain.TicketStatusResolved, SLADueAt: &past, SLABreached: true},
		{Status: domain.TicketStatusReopened, SLADueAt: &past},
	}, now)

	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 1, stats.Resolved)
}
