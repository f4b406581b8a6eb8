package ticketquery

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiodesk/studio-desk/internal/domain"
)

func TestParseStateTreatsAllAsUnset(t *testing.T) {
	values := url.Values{
		"status":     {"all"},
		"priority":   {""},
		"studio_id":  {"ALL"},
		"date_range": {"all"},
		"sla":        {"all"},
	}

	state, err := ParseState(values.Get)

	require.NoError(t, err)
	assert.Zero(t, state.ActiveFilters())
	assert.False(t, state.Status.IsSet())
	assert.False(t, state.StudioID.IsSet())
}

func TestParseStateReadsEveryDimension(t *testing.T) {
	values := url.Values{
		"search":      {"  locker "},
		"status":      {"in_progress"},
		"priority":    {"high"},
		"category_id": {"cat-1"},
		"studio_id":   {"studio-1"},
		"source":      {"email"},
		"assignee":    {"unassigned"},
		"date_range":  {"30d"},
		"sla":         {"at_risk"},
		"sort":        {"priority"},
		"limit":       {"25"},
	}

	state, err := ParseState(values.Get)

	require.NoError(t, err)
	assert.Equal(t, "locker", state.Search)
	assert.Equal(t, domain.Some(domain.TicketStatusInProgress), state.Status)
	assert.Equal(t, domain.Some(domain.TicketPriorityHigh), state.Priority)
	assert.True(t, state.Assignee.IsUnassigned())
	assert.Equal(t, DateRange30Days, state.DateRange)
	assert.Equal(t, SLAFilterAtRisk, state.SLA)
	assert.Equal(t, SortPriority, state.Sort)
	assert.Equal(t, 25, state.Limit)
	assert.Equal(t, 8, state.ActiveFilters())
}

func TestParseStateCollectsProblems(t *testing.T) {
	values := url.Values{"status": {"open"}, "sort": {"random"}, "limit": {"-1"}}

	_, err := ParseState(values.Get)

	var invalid *InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Len(t, invalid.Problems, 3)
}

func TestStateValuesRoundTrip(t *testing.T) {
	state := State{
		Search:    "refund",
		Priority:  domain.Some(domain.TicketPriorityCritical),
		Assignee:  AssignedTo("user-9"),
		DateRange: DateRange7Days,
		Sort:      SortUpdated,
		Limit:     50,
	}

	parsed, err := ParseState(state.Values().Get)

	require.NoError(t, err)
	assert.Equal(t, state, parsed)
}
