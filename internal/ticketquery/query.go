package ticketquery

import (
	"strings"
	"time"
)

// Column names a ticket attribute a query may reference.
type Column string

const (
	ColumnID            Column = "id"
	ColumnTicketNumber  Column = "ticket_number"
	ColumnTitle         Column = "title"
	ColumnCustomerName  Column = "customer_name"
	ColumnCustomerEmail Column = "customer_email"
	ColumnStatus        Column = "status"
	ColumnPriority      Column = "priority"
	ColumnPriorityRank  Column = "priority_rank"
	ColumnCategoryID    Column = "category_id"
	ColumnStudioID      Column = "studio_id"
	ColumnSource        Column = "source"
	ColumnAssigneeID    Column = "assignee_id"
	ColumnSLABreached   Column = "sla_breached"
	ColumnSLADueAt      Column = "sla_due_at"
	ColumnCreatedAt     Column = "created_at"
	ColumnUpdatedAt     Column = "updated_at"
)

// SearchColumns are OR-ed together by a text search.
var SearchColumns = []Column{ColumnTicketNumber, ColumnTitle, ColumnCustomerName, ColumnCustomerEmail}

// Equality requires Column to equal Value. Values are string or bool.
type Equality struct {
	Column Column
	Value  any
}

// TextSearch is a case-insensitive substring match over any of Columns.
type TextSearch struct {
	Columns []Column
	Term    string
}

// LikePattern returns the term wrapped for ILIKE with %, _ and \ escaped.
func (s TextSearch) LikePattern() string {
	return "%" + EscapeLike(s.Term) + "%"
}

// Order is one sort term.
type Order struct {
	Column     Column
	Descending bool
}

// Query describes a ticket list fetch independently of the backend.
type Query struct {
	Equals      []Equality
	Search      *TextSearch
	IsNull      []Column
	NotNull     []Column
	CreatedFrom *time.Time
	Order       []Order
	Limit       int
}

// Builder converts list state into queries. The zero value uses UTC,
// time.Now and the default limits.
type Builder struct {
	DefaultLimit int
	MaxLimit     int
	Location     *time.Location
	Now          func() time.Time
}

const (
	DefaultLimit = 100
	MaxLimit     = 200
)

// Build evaluates state against the builder clock.
func (b Builder) Build(state State) Query {
	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}
	return Build(state, now, b.Location, b.limits())
}

func (b Builder) limits() Limits {
	return Limits{Default: b.DefaultLimit, Max: b.MaxLimit}
}

// Limits bounds the result cap.
type Limits struct {
	Default int
	Max     int
}

func (l Limits) resolve(requested int) int {
	maxLimit := l.Max
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	def := l.Default
	if def <= 0 || def > maxLimit {
		def = min(DefaultLimit, maxLimit)
	}
	switch {
	case requested <= 0:
		return def
	case requested > maxLimit:
		return maxLimit
	default:
		return requested
	}
}

// Build is the pure state to query transformation. Calendar boundaries are
// taken in loc, UTC when nil.
func Build(state State, now time.Time, loc *time.Location, limits Limits) Query {
	if loc == nil {
		loc = time.UTC
	}
	var q Query

	if term := strings.TrimSpace(state.Search); term != "" {
		q.Search = &TextSearch{Columns: SearchColumns, Term: term}
	}
	if v, ok := state.Status.Get(); ok {
		q.Equals = append(q.Equals, Equality{Column: ColumnStatus, Value: string(v)})
	}
	if v, ok := state.Priority.Get(); ok {
		q.Equals = append(q.Equals, Equality{Column: ColumnPriority, Value: string(v)})
	}
	if v, ok := state.CategoryID.Get(); ok {
		q.Equals = append(q.Equals, Equality{Column: ColumnCategoryID, Value: v})
	}
	if v, ok := state.StudioID.Get(); ok {
		q.Equals = append(q.Equals, Equality{Column: ColumnStudioID, Value: v})
	}
	if v, ok := state.Source.Get(); ok {
		q.Equals = append(q.Equals, Equality{Column: ColumnSource, Value: v})
	}
	if state.Assignee.IsUnassigned() {
		q.IsNull = append(q.IsNull, ColumnAssigneeID)
	} else if id, ok := state.Assignee.ID(); ok {
		q.Equals = append(q.Equals, Equality{Column: ColumnAssigneeID, Value: id})
	}

	switch state.SLA {
	case SLAFilterBreached:
		q.Equals = append(q.Equals, Equality{Column: ColumnSLABreached, Value: true})
	case SLAFilterAtRisk:
		q.Equals = append(q.Equals, Equality{Column: ColumnSLABreached, Value: false})
		q.NotNull = append(q.NotNull, ColumnSLADueAt)
	}

	if from, ok := CreatedFrom(state.DateRange, now, loc); ok {
		q.CreatedFrom = &from
	}

	q.Order = orderFor(state.Sort)
	q.Limit = limits.resolve(state.Limit)
	return q
}

// CreatedFrom returns the inclusive lower bound for a date range.
func CreatedFrom(r DateRange, now time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch r {
	case DateRangeToday:
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true
	case DateRange7Days, DateRange30Days, DateRange90Days:
		return now.AddDate(0, 0, -r.Days()), true
	default:
		return time.Time{}, false
	}
}

func orderFor(key SortKey) []Order {
	switch key {
	case SortOldest:
		return []Order{{Column: ColumnCreatedAt}, {Column: ColumnID}}
	case SortPriority:
		return []Order{
			{Column: ColumnPriorityRank, Descending: true},
			{Column: ColumnCreatedAt, Descending: true},
			{Column: ColumnID, Descending: true},
		}
	case SortUpdated:
		return []Order{{Column: ColumnUpdatedAt, Descending: true}, {Column: ColumnID, Descending: true}}
	default:
		return []Order{{Column: ColumnCreatedAt, Descending: true}, {Column: ColumnID, Descending: true}}
	}
}

// EscapeLike escapes LIKE metacharacters using backslash.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
