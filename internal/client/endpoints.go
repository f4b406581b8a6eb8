package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/studiodesk/studio-desk/internal/analytics"
	"github.com/studiodesk/studio-desk/internal/api/dto"
	"github.com/studiodesk/studio-desk/internal/export"
	"github.com/studiodesk/studio-desk/internal/ticketquery"
	"github.com/studiodesk/studio-desk/internal/ticketstats"
)

// Login exchanges credentials for a token and starts using it.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	resp, err := call[dto.LoginResponse](ctx, c, http.MethodPost, "/auth/login", func(r *resty.Request) {
		r.SetBody(dto.LoginRequest{Email: email, Password: password})
	})
	if err != nil {
		return nil, err
	}
	c.SetToken(resp.Auth.Token)
	return &resp, nil
}

// ListTickets fetches the ticket list for state.
func (c *Client) ListTickets(ctx context.Context, state ticketquery.State) (*dto.TicketListResponse, error) {
	resp, err := call[dto.TicketListResponse](ctx, c, http.MethodGet, "/api/tickets", withQuery(state.Values()))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// TicketStats fetches the stats strip for state.
func (c *Client) TicketStats(ctx context.Context, state ticketquery.State) (ticketstats.Stats, error) {
	return call[ticketstats.Stats](ctx, c, http.MethodGet, "/api/tickets/stats", withQuery(state.Values()))
}

// Export is a downloaded ticket export.
type Export struct {
	Filename  string
	Truncated bool
	Body      []byte
}

// ExportTickets downloads the tickets matching state.
func (c *Client) ExportTickets(ctx context.Context, state ticketquery.State, format export.Format) (*Export, error) {
	values := state.Values()
	values.Set("format", string(format))
	resp, err := c.raw(ctx, "/api/tickets/export", withQuery(values))
	if err != nil {
		return nil, err
	}
	return &Export{
		Filename:  filenameFrom(resp.Header().Get("Content-Disposition")),
		Truncated: resp.Header().Get("X-Export-Truncated") == "true",
		Body:      resp.Body(),
	}, nil
}

// Analytics fetches a snapshot. An empty studioID covers all studios.
func (c *Client) Analytics(ctx context.Context, r analytics.Range, studioID string) (*analytics.Snapshot, error) {
	values := url.Values{}
	values.Set("range", string(r))
	if studioID != "" {
		values.Set("studio_id", studioID)
	}
	snap, err := call[analytics.Snapshot](ctx, c, http.MethodGet, "/api/analytics", withQuery(values))
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Categories lists active categories with their subcategories.
func (c *Client) Categories(ctx context.Context) ([]dto.CategoryResponse, error) {
	return call[[]dto.CategoryResponse](ctx, c, http.MethodGet, "/api/categories", nil)
}

// Studios lists active studios.
func (c *Client) Studios(ctx context.Context) ([]dto.StudioResponse, error) {
	return call[[]dto.StudioResponse](ctx, c, http.MethodGet, "/api/studios", nil)
}

// Users lists active staff.
func (c *Client) Users(ctx context.Context) ([]dto.UserResponse, error) {
	return call[[]dto.UserResponse](ctx, c, http.MethodGet, "/api/users", nil)
}

// TemplateFilter narrows the template listing.
type TemplateFilter struct {
	Search   string
	Category string
	Priority string
}

func (f TemplateFilter) values() url.Values {
	values := url.Values{}
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	if f.Category != "" {
		values.Set("category", f.Category)
	}
	if f.Priority != "" {
		values.Set("priority", f.Priority)
	}
	return values
}

// Templates lists the session's templates.
func (c *Client) Templates(ctx context.Context, filter TemplateFilter) (*dto.TemplateListResponse, error) {
	resp, err := call[dto.TemplateListResponse](ctx, c, http.MethodGet, "/api/templates", withQuery(filter.values()))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// TemplateCategories lists the distinct template categories.
func (c *Client) TemplateCategories(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, c, http.MethodGet, "/api/templates/categories", nil)
}

// CreateTemplate adds a custom template.
func (c *Client) CreateTemplate(ctx context.Context, req dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	resp, err := call[dto.TemplateResponse](ctx, c, http.MethodPost, "/api/templates", func(r *resty.Request) {
		r.SetBody(req)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DuplicateTemplate copies a template.
func (c *Client) DuplicateTemplate(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	resp, err := call[dto.TemplateResponse](ctx, c, http.MethodPost, "/api/templates/{id}/duplicate", withID(id))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UseTemplate records a use and returns the ticket prefill.
func (c *Client) UseTemplate(ctx context.Context, id string) (*dto.PrefillResponse, error) {
	resp, err := call[dto.PrefillResponse](ctx, c, http.MethodPost, "/api/templates/{id}/use", withID(id))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteTemplate removes a template. Missing ids succeed.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/templates/"+url.PathEscape(id))
}

// ResetTemplates restores the seed catalog.
func (c *Client) ResetTemplates(ctx context.Context) (*dto.TemplateListResponse, error) {
	resp, err := call[dto.TemplateListResponse](ctx, c, http.MethodPost, "/api/templates/reset", nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func withQuery(values url.Values) func(*resty.Request) {
	return func(r *resty.Request) {
		r.SetQueryParamsFromValues(values)
	}
}

func withID(id string) func(*resty.Request) {
	return func(r *resty.Request) {
		r.SetPathParam("id", id)
	}
}

func filenameFrom(disposition string) string {
	_, after, ok := strings.Cut(disposition, "filename=")
	if !ok {
		return ""
	}
	return strings.Trim(after, `"`)
}
