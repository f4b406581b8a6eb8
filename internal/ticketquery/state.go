// Package ticketquery turns ticket list filter selections into a
// backend-agnostic query description and evaluates it in memory.
package ticketquery

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// DateRange bounds ticket creation time from below.
type DateRange string

const (
	DateRangeAll    DateRange = "all"
	DateRangeToday  DateRange = "today"
	DateRange7Days  DateRange = "7d"
	DateRange30Days DateRange = "30d"
	DateRange90Days DateRange = "90d"
)

// Days returns the look-back window, zero for all-time and today.
func (r DateRange) Days() int {
	switch r {
	case DateRange7Days:
		return 7
	case DateRange30Days:
		return 30
	case DateRange90Days:
		return 90
	default:
		return 0
	}
}

// SLAFilter selects tickets by deadline position.
type SLAFilter string

const (
	SLAFilterAll      SLAFilter = "all"
	SLAFilterBreached SLAFilter = "breached"
	SLAFilterAtRisk   SLAFilter = "at_risk"
)

// SortKey selects the list ordering.
type SortKey string

const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortPriority SortKey = "priority"
	SortUpdated  SortKey = "updated"
)

// AssigneeFilter is either unrestricted, "unassigned", or one assignee.
type AssigneeFilter struct {
	unassigned bool
	id         domain.Option[string]
}

// AnyAssignee does not restrict the assignee.
func AnyAssignee() AssigneeFilter { return AssigneeFilter{} }

// Unassigned keeps tickets without an assignee.
func Unassigned() AssigneeFilter { return AssigneeFilter{unassigned: true} }

// AssignedTo keeps tickets assigned to id.
func AssignedTo(id string) AssigneeFilter {
	return AssigneeFilter{id: domain.Some(id)}
}

// IsUnassigned reports whether the filter asks for tickets with no assignee.
func (f AssigneeFilter) IsUnassigned() bool { return f.unassigned }

// ID returns the pinned assignee, if any.
func (f AssigneeFilter) ID() (string, bool) { return f.id.Get() }

// IsSet reports whether the filter restricts anything.
func (f AssigneeFilter) IsSet() bool { return f.unassigned || f.id.IsSet() }

// State is the full set of list selections. The zero value means
// "no restriction, newest first, default cap".
type State struct {
	Search     string
	Status     domain.Option[domain.TicketStatus]
	Priority   domain.Option[domain.TicketPriority]
	CategoryID domain.Option[string]
	StudioID   domain.Option[string]
	Source     domain.Option[string]
	Assignee   AssigneeFilter
	DateRange  DateRange
	SLA        SLAFilter
	Sort       SortKey
	Limit      int
}

// ActiveFilters counts restricting dimensions, search excluded.
func (s State) ActiveFilters() int {
	count := 0
	for _, set := range []bool{
		s.Status.IsSet(),
		s.Priority.IsSet(),
		s.CategoryID.IsSet(),
		s.StudioID.IsSet(),
		s.Source.IsSet(),
		s.Assignee.IsSet(),
		s.DateRange != "" && s.DateRange != DateRangeAll,
		s.SLA != "" && s.SLA != SLAFilterAll,
	} {
		if set {
			count++
		}
	}
	return count
}

// Cleared drops every filter and the search term but keeps sort and cap.
func (s State) Cleared() State {
	return State{Sort: s.Sort, Limit: s.Limit}
}

const (
	paramAll        = "all"
	paramUnassigned = "unassigned"
)

// ParseState reads selections through get, typically a query-string lookup.
// Empty values and the literal "all" leave a dimension unset.
func ParseState(get func(key string) string) (State, error) {
	var state State
	var errs []string

	state.Search = strings.TrimSpace(get("search"))

	if raw, ok := param(get, "status"); ok {
		status, err := domain.ParseTicketStatus(raw)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			state.Status = domain.Some(status)
		}
	}
	if raw, ok := param(get, "priority"); ok {
		priority, err := domain.ParseTicketPriority(raw)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			state.Priority = domain.Some(priority)
		}
	}
	if raw, ok := param(get, "category_id"); ok {
		state.CategoryID = domain.Some(raw)
	}
	if raw, ok := param(get, "studio_id"); ok {
		state.StudioID = domain.Some(raw)
	}
	if raw, ok := param(get, "source"); ok {
		state.Source = domain.Some(raw)
	}
	if raw, ok := param(get, "assignee"); ok {
		if strings.EqualFold(raw, paramUnassigned) {
			state.Assignee = Unassigned()
		} else {
			state.Assignee = AssignedTo(raw)
		}
	}
	if raw := strings.TrimSpace(get("date_range")); raw != "" {
		switch r := DateRange(strings.ToLower(raw)); r {
		case DateRangeAll, DateRangeToday, DateRange7Days, DateRange30Days, DateRange90Days:
			state.DateRange = r
		default:
			errs = append(errs, fmt.Sprintf("unknown date range %q", raw))
		}
	}
	if raw := strings.TrimSpace(get("sla")); raw != "" {
		switch f := SLAFilter(strings.ToLower(raw)); f {
		case SLAFilterAll, SLAFilterBreached, SLAFilterAtRisk:
			state.SLA = f
		default:
			errs = append(errs, fmt.Sprintf("unknown sla filter %q", raw))
		}
	}
	if raw := strings.TrimSpace(get("sort")); raw != "" {
		switch k := SortKey(strings.ToLower(raw)); k {
		case SortNewest, SortOldest, SortPriority, SortUpdated:
			state.Sort = k
		default:
			errs = append(errs, fmt.Sprintf("unknown sort %q", raw))
		}
	}
	if raw := strings.TrimSpace(get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			errs = append(errs, fmt.Sprintf("invalid limit %q", raw))
		} else {
			state.Limit = limit
		}
	}

	if len(errs) > 0 {
		return State{}, &InvalidStateError{Problems: errs}
	}
	return state, nil
}

// Values encodes the state back into query parameters.
func (s State) Values() url.Values {
	values := url.Values{}
	if s.Search != "" {
		values.Set("search", s.Search)
	}
	if v, ok := s.Status.Get(); ok {
		values.Set("status", string(v))
	}
	if v, ok := s.Priority.Get(); ok {
		values.Set("priority", string(v))
	}
	if v, ok := s.CategoryID.Get(); ok {
		values.Set("category_id", v)
	}
	if v, ok := s.StudioID.Get(); ok {
		values.Set("studio_id", v)
	}
	if v, ok := s.Source.Get(); ok {
		values.Set("source", v)
	}
	if s.Assignee.IsUnassigned() {
		values.Set("assignee", paramUnassigned)
	} else if id, ok := s.Assignee.ID(); ok {
		values.Set("assignee", id)
	}
	if s.DateRange != "" && s.DateRange != DateRangeAll {
		values.Set("date_range", string(s.DateRange))
	}
	if s.SLA != "" && s.SLA != SLAFilterAll {
		values.Set("sla", string(s.SLA))
	}
	if s.Sort != "" && s.Sort != SortNewest {
		values.Set("sort", string(s.Sort))
	}
	if s.Limit > 0 {
		values.Set("limit", strconv.Itoa(s.Limit))
	}
	return values
}

// InvalidStateError lists every rejected selection.
type InvalidStateError struct {
	Problems []string
}

func (e *InvalidStateError) Error() string {
	return "invalid ticket filter: " + strings.Join(e.Problems, "; ")
}

func param(get func(string) string, key string) (string, bool) {
	raw := strings.TrimSpace(get(key))
	if raw == "" || strings.EqualFold(raw, paramAll) {
		return "", false
	}
	return raw, true
}
