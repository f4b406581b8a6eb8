package ticketquery

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiodesk/studio-desk/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestPrioritySortBreaksTiesByNewest(t *testing.T) {
	t1 := testNow.Add(-5 * time.Hour)
	tickets := []domain.Ticket{
		{ID: "A", Priority: domain.TicketPriorityHigh, CreatedAt: t1},
		{ID: "B", Priority: domain.TicketPriorityCritical, CreatedAt: t1.Add(-time.Hour)},
		{ID: "C", Priority: domain.TicketPriorityHigh, CreatedAt: t1.Add(time.Hour)},
	}

	q := Build(State{Sort: SortPriority}, testNow, time.UTC, Limits{})
	got, truncated := q.Apply(tickets)

	assert.False(t, truncated)
	assert.Equal(t, []string{"B", "C", "A"}, ids(got))
}

func TestTodayBoundaryUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)
	tickets := []domain.Ticket{
		{ID: "yesterday", CreatedAt: time.Date(2026, 3, 9, 23, 59, 0, 0, loc)},
		{ID: "today", CreatedAt: time.Date(2026, 3, 10, 0, 1, 0, 0, loc)},
	}

	q := Build(State{DateRange: DateRangeToday}, now, loc, Limits{})
	got, _ := q.Apply(tickets)

	assert.Equal(t, []string{"today"}, ids(got))
	require.NotNil(t, q.CreatedFrom)
	assert.True(t, q.CreatedFrom.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, loc)))
}

func TestRollingRangesSubtractDays(t *testing.T) {
	from, ok := CreatedFrom(DateRange7Days, testNow, time.UTC)
	require.True(t, ok)
	assert.Equal(t, testNow.AddDate(0, 0, -7), from)

	_, ok = CreatedFrom(DateRangeAll, testNow, time.UTC)
	assert.False(t, ok)
}

func TestClearedStateReturnsCappedNewestFirst(t *testing.T) {
	population := randomPopulation(rand.New(rand.NewPCG(7, 11)), 250)
	state := State{
		Search:   "yoga",
		Status:   domain.Some(domain.TicketStatusNew),
		Priority: domain.Some(domain.TicketPriorityLow),
		Assignee: Unassigned(),
		SLA:      SLAFilterBreached,
	}

	q := Build(state.Cleared(), testNow, time.UTC, Limits{})
	got, truncated := q.Apply(population)

	assert.True(t, truncated)
	require.Len(t, got, DefaultLimit)
	assert.Zero(t, state.Cleared().ActiveFilters())
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt), "row %d out of order", i)
	}
}

func TestLimitClamp(t *testing.T) {
	tests := []struct {
		requested int
		limits    Limits
		want      int
	}{
		{0, Limits{}, 100},
		{-4, Limits{}, 100},
		{1, Limits{}, 1},
		{500, Limits{}, 200},
		{500, Limits{Default: 20, Max: 50}, 50},
		{0, Limits{Default: 20, Max: 50}, 20},
		{0, Limits{Default: 80, Max: 50}, 50},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d/%d", tt.requested, tt.limits.Default, tt.limits.Max), func(t *testing.T) {
			q := Build(State{Limit: tt.requested}, testNow, time.UTC, tt.limits)
			assert.Equal(t, tt.want, q.Limit)
		})
	}
}

func TestSLAFilters(t *testing.T) {
	due := testNow.Add(time.Hour)
	tickets := []domain.Ticket{
		{ID: "breached", SLABreached: true, SLADueAt: &due},
		{ID: "at-risk", SLADueAt: &due},
		{ID: "no-deadline"},
	}

	breached, _ := Build(State{SLA: SLAFilterBreached}, testNow, time.UTC, Limits{}).Apply(tickets)
	atRisk, _ := Build(State{SLA: SLAFilterAtRisk}, testNow, time.UTC, Limits{}).Apply(tickets)

	assert.Equal(t, []string{"breached"}, ids(breached))
	assert.Equal(t, []string{"at-risk"}, ids(atRisk))
}

func TestSearchIsCaseInsensitiveAcrossColumns(t *testing.T) {
	tickets := []domain.Ticket{
		{ID: "1", TicketNumber: "TKT-0001", Title: "Mat missing"},
		{ID: "2", Title: "Refund", CustomerName: "Priya MATHUR"},
		{ID: "3", Title: "Refund", CustomerEmail: "someone@example.com"},
	}

	got, _ := Build(State{Search: "  mat "}, testNow, time.UTC, Limits{Default: 10}).Apply(tickets)

	assert.ElementsMatch(t, []string{"1", "2"}, ids(got))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, EscapeLike(`50% off_now\`))
	assert.Equal(t, `%a\_b%`, TextSearch{Term: "a_b"}.LikePattern())
}

// TestFilterProperty checks every generated state against a predicate that
// reads ticket fields directly instead of going through Query.
func TestFilterProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1337))
	population := randomPopulation(rng, 400)

	for i := 0; i < 500; i++ {
		state := randomState(rng)
		q := Build(state, testNow, time.UTC, Limits{Max: 1000, Default: 1000})
		got, _ := q.Apply(population)

		var want []string
		for _, ticket := range population {
			if referenceMatch(state, ticket) {
				want = append(want, ticket.ID)
			}
		}
		require.ElementsMatch(t, want, ids(got), "state %+v", state)
		require.True(t, slices.IsSortedFunc(got, q.Compare), "state %+v", state)
	}
}

func referenceMatch(s State, t domain.Ticket) bool {
	if s.Search != "" {
		needle := strings.ToLower(strings.TrimSpace(s.Search))
		found := false
		for _, field := range []string{t.TicketNumber, t.Title, t.CustomerName, t.CustomerEmail} {
			if strings.Contains(strings.ToLower(field), needle) {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if !s.Status.Allows(t.Status) || !s.Priority.Allows(t.Priority) {
		return false
	}
	if !s.CategoryID.Allows(t.CategoryID) || !s.StudioID.Allows(t.StudioID) || !s.Source.Allows(t.Source) {
		return false
	}
	if s.Assignee.IsUnassigned() && t.AssigneeID != nil {
		return false
	}
	if id, ok := s.Assignee.ID(); ok && (t.AssigneeID == nil || *t.AssigneeID != id) {
		return false
	}
	switch s.SLA {
	case SLAFilterBreached:
		if !t.SLABreached {
			return false
		}
	case SLAFilterAtRisk:
		if t.SLABreached || t.SLADueAt == nil {
			return false
		}
	}
	switch s.DateRange {
	case DateRangeToday:
		y, m, d := testNow.Date()
		if t.CreatedAt.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
			return false
		}
	case DateRange7Days, DateRange30Days, DateRange90Days:
		if testNow.Sub(t.CreatedAt) > time.Duration(s.DateRange.Days())*24*time.Hour {
			return false
		}
	}
	return true
}

var (
	categories = []string{"cat-booking", "cat-payments", "cat-safety"}
	studios    = []string{"studio-kwality", "studio-supreme", "studio-kenkre"}
	sources    = []string{"email", "phone", "walk_in", "app"}
	assignees  = []string{"user-1", "user-2"}
	words      = []string{"yoga", "refund", "booking", "mat", "locker", "barre"}
)

func randomPopulation(rng *rand.Rand, n int) []domain.Ticket {
	tickets := make([]domain.Ticket, 0, n)
	for i := 0; i < n; i++ {
		created := testNow.Add(-time.Duration(rng.IntN(120*24*60)) * time.Minute)
		ticket := domain.Ticket{
			ID:            fmt.Sprintf("t-%04d", i),
			TicketNumber:  fmt.Sprintf("TKT-%05d", i),
			Title:         words[rng.IntN(len(words))] + " " + words[rng.IntN(len(words))],
			Status:        domain.TicketStatuses[rng.IntN(len(domain.TicketStatuses))],
			Priority:      domain.TicketPriorities[rng.IntN(len(domain.TicketPriorities))],
			CategoryID:    categories[rng.IntN(len(categories))],
			StudioID:      studios[rng.IntN(len(studios))],
			Source:        sources[rng.IntN(len(sources))],
			CreatedAt:     created,
			UpdatedAt:     created.Add(time.Duration(rng.IntN(72)) * time.Hour),
			CustomerName:  "Member " + words[rng.IntN(len(words))],
			CustomerEmail: fmt.Sprintf("member%d@example.com", i),
			SLABreached:   rng.IntN(5) == 0,
		}
		if rng.IntN(3) > 0 {
			ticket.AssigneeID = strPtr(assignees[rng.IntN(len(assignees))])
		}
		if rng.IntN(4) > 0 {
			ticket.SLADueAt = timePtr(created.Add(time.Duration(rng.IntN(48)) * time.Hour))
		}
		tickets = append(tickets, ticket)
	}
	return tickets
}

func randomState(rng *rand.Rand) State {
	var s State
	if rng.IntN(3) == 0 {
		s.Search = words[rng.IntN(len(words))]
	}
	if rng.IntN(2) == 0 {
		s.Status = domain.Some(domain.TicketStatuses[rng.IntN(len(domain.TicketStatuses))])
	}
	if rng.IntN(2) == 0 {
		s.Priority = domain.Some(domain.TicketPriorities[rng.IntN(len(domain.TicketPriorities))])
	}
	if rng.IntN(3) == 0 {
		s.CategoryID = domain.Some(categories[rng.IntN(len(categories))])
	}
	if rng.IntN(3) == 0 {
		s.StudioID = domain.Some(studios[rng.IntN(len(studios))])
	}
	if rng.IntN(3) == 0 {
		s.Source = domain.Some(sources[rng.IntN(len(sources))])
	}
	switch rng.IntN(3) {
	case 1:
		s.Assignee = Unassigned()
	case 2:
		s.Assignee = AssignedTo(assignees[rng.IntN(len(assignees))])
	}
	s.DateRange = []DateRange{DateRangeAll, DateRangeToday, DateRange7Days, DateRange30Days, DateRange90Days}[rng.IntN(5)]
	s.SLA = []SLAFilter{SLAFilterAll, SLAFilterBreached, SLAFilterAtRisk}[rng.IntN(3)]
	s.Sort = []SortKey{SortNewest, SortOldest, SortPriority, SortUpdated}[rng.IntN(4)]
	return s
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}
