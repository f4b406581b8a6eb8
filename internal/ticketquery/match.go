package ticketquery

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// Matches reports whether t satisfies every condition of q.
func (q Query) Matches(t domain.Ticket) bool {
	for _, eq := range q.Equals {
		if !equalsColumn(t, eq) {
			return false
		}
	}
	for _, col := range q.IsNull {
		if !isNull(t, col) {
			return false
		}
	}
	for _, col := range q.NotNull {
		if isNull(t, col) {
			return false
		}
	}
	if q.CreatedFrom != nil && t.CreatedAt.Before(*q.CreatedFrom) {
		return false
	}
	if q.Search != nil && !searchMatches(t, *q.Search) {
		return false
	}
	return true
}

// Compare orders a before b (negative), after b (positive) or equal.
func (q Query) Compare(a, b domain.Ticket) int {
	for _, o := range q.Order {
		c := compareColumn(a, b, o.Column)
		if o.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Apply filters, sorts and caps tickets. A Limit of zero keeps everything.
// The second result reports whether rows were dropped by the cap.
func (q Query) Apply(tickets []domain.Ticket) ([]domain.Ticket, bool) {
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, q.Compare)
	if q.Limit > 0 && len(out) > q.Limit {
		return out[:q.Limit], true
	}
	return out, false
}

func equalsColumn(t domain.Ticket, eq Equality) bool {
	switch eq.Column {
	case ColumnSLABreached:
		want, ok := eq.Value.(bool)
		return ok && t.SLABreached == want
	case ColumnAssigneeID:
		want, ok := eq.Value.(string)
		return ok && t.AssigneeID != nil && *t.AssigneeID == want
	default:
		want, ok := eq.Value.(string)
		return ok && stringColumn(t, eq.Column) == want
	}
}

func stringColumn(t domain.Ticket, col Column) string {
	switch col {
	case ColumnID:
		return t.ID
	case ColumnTicketNumber:
		return t.TicketNumber
	case ColumnTitle:
		return t.Title
	case ColumnCustomerName:
		return t.CustomerName
	case ColumnCustomerEmail:
		return t.CustomerEmail
	case ColumnStatus:
		return string(t.Status)
	case ColumnPriority:
		return string(t.Priority)
	case ColumnCategoryID:
		return t.CategoryID
	case ColumnStudioID:
		return t.StudioID
	case ColumnSource:
		return t.Source
	case ColumnAssigneeID:
		if t.AssigneeID != nil {
			return *t.AssigneeID
		}
	}
	return ""
}

func isNull(t domain.Ticket, col Column) bool {
	switch col {
	case ColumnAssigneeID:
		return t.AssigneeID == nil
	case ColumnSLADueAt:
		return t.SLADueAt == nil
	default:
		return false
	}
}

func searchMatches(t domain.Ticket, s TextSearch) bool {
	term := strings.ToLower(s.Term)
	for _, col := range s.Columns {
		if strings.Contains(strings.ToLower(stringColumn(t, col)), term) {
			return true
		}
	}
	return false
}

func compareColumn(a, b domain.Ticket, col Column) int {
	switch col {
	case ColumnCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case ColumnUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case ColumnSLADueAt:
		return compareOptionalTime(a.SLADueAt, b.SLADueAt)
	case ColumnPriorityRank:
		return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
	case ColumnSLABreached:
		return compareBool(a.SLABreached, b.SLABreached)
	default:
		return strings.Compare(stringColumn(a, col), stringColumn(b, col))
	}
}

func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
