package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/ticketquery"
)

// TicketPage is one list response. Truncated reports that more rows matched
// than the query limit allowed.
type TicketPage struct {
	Tickets   []domain.Ticket
	Truncated bool
}

// TicketRepository reads denormalized ticket rows.
type TicketRepository interface {
	List(ctx context.Context, q ticketquery.Query) (TicketPage, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketSelect = `SELECT t.id, t.ticket_number, t.title, t.description, t.status, t.priority,
       t.category_id, t.subcategory_id, t.studio_id, t.assignee_id, t.reporter_id, t.source,
       t.created_at, t.updated_at, t.resolved_at, t.sla_due_at, t.sla_breached, t.tags,
       t.customer_name, t.customer_email, t.customer_phone, t.mood,
       c.name, c.code, sc.name, s.name, s.code, a.name, a.email, a.team, r.name
  FROM tickets t
  LEFT JOIN categories c ON c.id = t.category_id
  LEFT JOIN subcategories sc ON sc.id = t.subcategory_id
  LEFT JOIN studios s ON s.id = t.studio_id
  LEFT JOIN users a ON a.id = t.assignee_id
  LEFT JOIN users r ON r.id = t.reporter_id`

const priorityRankExpr = `CASE t.priority WHEN 'critical' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END`

var ticketColumns = map[ticketquery.Column]string{
	ticketquery.ColumnID:            "t.id",
	ticketquery.ColumnTicketNumber:  "t.ticket_number",
	ticketquery.ColumnTitle:         "t.title",
	ticketquery.ColumnCustomerName:  "t.customer_name",
	ticketquery.ColumnCustomerEmail: "t.customer_email",
	ticketquery.ColumnStatus:        "t.status",
	ticketquery.ColumnPriority:      "t.priority",
	ticketquery.ColumnPriorityRank:  priorityRankExpr,
	ticketquery.ColumnCategoryID:    "t.category_id",
	ticketquery.ColumnStudioID:      "t.studio_id",
	ticketquery.ColumnSource:        "t.source",
	ticketquery.ColumnAssigneeID:    "t.assignee_id",
	ticketquery.ColumnSLABreached:   "t.sla_breached",
	ticketquery.ColumnSLADueAt:      "t.sla_due_at",
	ticketquery.ColumnCreatedAt:     "t.created_at",
	ticketquery.ColumnUpdatedAt:     "t.updated_at",
}

func (r *ticketRepository) List(ctx context.Context, q ticketquery.Query) (TicketPage, error) {
	query, args, err := buildTicketListSQL(q)
	if err != nil {
		return TicketPage{}, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return TicketPage{}, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return TicketPage{}, err
	}

	page := TicketPage{Tickets: tickets}
	if q.Limit > 0 && len(tickets) > q.Limit {
		page.Tickets = tickets[:q.Limit]
		page.Truncated = true
	}
	return page, nil
}

// buildTicketListSQL renders q as a parameterized statement. The limit is
// raised by one so truncation can be detected.
func buildTicketListSQL(q ticketquery.Query) (string, []any, error) {
	clauses := []string{"1=1"}
	args := []any{}

	column := func(c ticketquery.Column) (string, error) {
		expr, ok := ticketColumns[c]
		if !ok {
			return "", fmt.Errorf("unsupported ticket column %q", c)
		}
		return expr, nil
	}

	for _, eq := range q.Equals {
		expr, err := column(eq.Column)
		if err != nil {
			return "", nil, err
		}
		args = append(args, eq.Value)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", expr, len(args)))
	}
	for _, c := range q.IsNull {
		expr, err := column(c)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, expr+" IS NULL")
	}
	for _, c := range q.NotNull {
		expr, err := column(c)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, expr+" IS NOT NULL")
	}
	if q.CreatedFrom != nil {
		args = append(args, *q.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if q.Search != nil {
		args = append(args, q.Search.LikePattern())
		placeholder := fmt.Sprintf("$%d", len(args))
		ors := make([]string, 0, len(q.Search.Columns))
		for _, c := range q.Search.Columns {
			expr, err := column(c)
			if err != nil {
				return "", nil, err
			}
			ors = append(ors, fmt.Sprintf("%s ILIKE %s", expr, placeholder))
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	order := make([]string, 0, len(q.Order))
	for _, o := range q.Order {
		expr, err := column(o.Column)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if o.Descending {
			dir = "DESC"
		}
		order = append(order, expr+" "+dir)
	}
	if len(order) == 0 {
		order = append(order, "t.created_at DESC", "t.id DESC")
	}

	query := fmt.Sprintf("%s\n WHERE %s\n ORDER BY %s", ticketSelect, strings.Join(clauses, " AND "), strings.Join(order, ", "))
	if q.Limit > 0 {
		query += fmt.Sprintf("\n LIMIT %d", q.Limit+1)
	}
	return query, args, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		var categoryName, categoryCode, subcategoryName *string
		var studioName, studioCode *string
		var assigneeName, assigneeEmail, assigneeTeam *string
		var reporterName *string
		if err := rows.Scan(
			&ticket.ID,
			&ticket.TicketNumber,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.CategoryID,
			&ticket.SubcategoryID,
			&ticket.StudioID,
			&ticket.AssigneeID,
			&ticket.ReporterID,
			&ticket.Source,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ResolvedAt,
			&ticket.SLADueAt,
			&ticket.SLABreached,
			&ticket.Tags,
			&ticket.CustomerName,
			&ticket.CustomerEmail,
			&ticket.CustomerPhone,
			&ticket.Mood,
			&categoryName,
			&categoryCode,
			&subcategoryName,
			&studioName,
			&studioCode,
			&assigneeName,
			&assigneeEmail,
			&assigneeTeam,
			&reporterName,
		); err != nil {
			return nil, err
		}

		if categoryName != nil {
			ticket.Category = &domain.Category{ID: ticket.CategoryID, Name: *categoryName, Code: deref(categoryCode)}
		}
		if subcategoryName != nil && ticket.SubcategoryID != nil {
			ticket.Subcategory = &domain.Subcategory{ID: *ticket.SubcategoryID, CategoryID: ticket.CategoryID, Name: *subcategoryName}
		}
		if studioName != nil {
			ticket.Studio = &domain.Studio{ID: ticket.StudioID, Name: *studioName, Code: deref(studioCode)}
		}
		if assigneeName != nil && ticket.AssigneeID != nil {
			ticket.Assignee = &domain.User{ID: *ticket.AssigneeID, Name: *assigneeName, Email: deref(assigneeEmail), Team: deref(assigneeTeam)}
		}
		if reporterName != nil {
			ticket.Reporter = &domain.User{ID: ticket.ReporterID, Name: *reporterName}
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
