package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/ticketquery"
)

// Repositories groups the read models the services depend on.
type Repositories struct {
	Tickets   TicketRepository
	Reference ReferenceRepository
	Users     UserRepository
}

// NewPostgresRepositories wires every repository to pool.
func NewPostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Tickets:   NewTicketRepository(pool),
		Reference: NewReferenceRepository(pool),
		Users:     NewUserRepository(pool),
	}
}

// Dataset is the full content of an in-memory backend.
type Dataset struct {
	Categories    []domain.Category
	Subcategories []domain.Subcategory
	Studios       []domain.Studio
	Users         []domain.User
	Tickets       []domain.Ticket
}

// NewMemoryRepositories serves ds from process memory. Ticket rows are
// joined with their references up front, mirroring the SQL list query.
func NewMemoryRepositories(ds Dataset) Repositories {
	users := &memoryUsers{users: slices.Clone(ds.Users)}
	return Repositories{
		Tickets:   &memoryTickets{tickets: joinTickets(ds)},
		Reference: &memoryReference{ds: ds},
		Users:     users,
	}
}

func joinTickets(ds Dataset) []domain.Ticket {
	categories := indexBy(ds.Categories, func(c domain.Category) string { return c.ID })
	subcategories := indexBy(ds.Subcategories, func(s domain.Subcategory) string { return s.ID })
	studios := indexBy(ds.Studios, func(s domain.Studio) string { return s.ID })
	users := indexBy(ds.Users, func(u domain.User) string { return u.ID })

	out := make([]domain.Ticket, 0, len(ds.Tickets))
	for _, t := range ds.Tickets {
		t.Category = categories[t.CategoryID]
		t.Studio = studios[t.StudioID]
		t.Reporter = users[t.ReporterID]
		if t.SubcategoryID != nil {
			t.Subcategory = subcategories[*t.SubcategoryID]
		}
		if t.AssigneeID != nil {
			t.Assignee = users[*t.AssigneeID]
		}
		out = append(out, t)
	}
	return out
}

func indexBy[T any](items []T, key func(T) string) map[string]*T {
	out := make(map[string]*T, len(items))
	for i := range items {
		item := items[i]
		out[key(item)] = &item
	}
	return out
}

type memoryTickets struct {
	mu      sync.RWMutex
	tickets []domain.Ticket
}

func (r *memoryTickets) List(ctx context.Context, q ticketquery.Query) (TicketPage, error) {
	if err := ctx.Err(); err != nil {
		return TicketPage{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets, truncated := q.Apply(r.tickets)
	return TicketPage{Tickets: tickets, Truncated: truncated}, nil
}

type memoryReference struct {
	ds Dataset
}

func (r *memoryReference) Categories(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return activeSorted(r.ds.Categories, func(c domain.Category) (bool, string) { return c.IsActive, c.Name }), nil
}

func (r *memoryReference) Subcategories(ctx context.Context) ([]domain.Subcategory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return activeSorted(r.ds.Subcategories, func(s domain.Subcategory) (bool, string) {
		return s.IsActive, s.CategoryID + "\x00" + s.Name
	}), nil
}

func (r *memoryReference) Studios(ctx context.Context) ([]domain.Studio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return activeSorted(r.ds.Studios, func(s domain.Studio) (bool, string) { return s.IsActive, s.Name }), nil
}

func activeSorted[T any](items []T, key func(T) (bool, string)) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if active, _ := key(item); active {
			out = append(out, item)
		}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		_, ka := key(a)
		_, kb := key(b)
		return strings.Compare(ka, kb)
	})
	return out
}

type memoryUsers struct {
	mu    sync.RWMutex
	users []domain.User
}

func (r *memoryUsers) List(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return activeSorted(r.users, func(u domain.User) (bool, string) { return u.IsActive, u.Name }), nil
}

func (r *memoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.find(ctx, func(u domain.User) bool { return u.ID == id })
}

func (r *memoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(ctx, func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memoryUsers) SetPasswordHashIfEmpty(ctx context.Context, id, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id && r.users[i].PasswordHash == "" {
			r.users[i].PasswordHash = hash
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUsers) find(ctx context.Context, match func(domain.User) bool) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}
