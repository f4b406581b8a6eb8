package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studiodesk/studio-desk/internal/analytics"
	"github.com/studiodesk/studio-desk/internal/api/http/handlers"
	"github.com/studiodesk/studio-desk/internal/auth"
	"github.com/studiodesk/studio-desk/internal/config"
	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/events"
	"github.com/studiodesk/studio-desk/internal/observability"
	"github.com/studiodesk/studio-desk/internal/repository"
	"github.com/studiodesk/studio-desk/internal/service"
	"github.com/studiodesk/studio-desk/internal/templates"
	"github.com/studiodesk/studio-desk/internal/ticketquery"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type failingTickets struct{}

func (failingTickets) List(context.Context, ticketquery.Query) (repository.TicketPage, error) {
	return repository.TicketPage{}, errors.New("connection refused")
}

type testServer struct {
	app     *fiber.App
	authSvc *service.AuthService
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, tickets repository.TicketRepository) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	repos := repository.NewMemoryRepositories(repository.DemoDataset(testNow, 150))
	if tickets == nil {
		tickets = repos.Tickets
	}
	fetcher := service.NewFetcher(config.FetchConfig{Timeout: time.Second, MaxAttempts: 2, InitialBackoff: time.Millisecond}, logger, metrics)
	dispatcher := events.NewInMemoryDispatcher()
	service.NewActivityService(dispatcher, logger, metrics).RegisterHandlers()

	authSvc := service.NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 30, BcryptCost: 4}, repos.Users, fetcher, logger)
	_, err := authSvc.BootstrapPasswords(context.Background(), "pw")
	require.NoError(t, err)

	seed, err := templates.DefaultSeed()
	require.NoError(t, err)
	sessions := templates.NewSessions(templates.NewMemoryStore(time.Hour), seed, templates.Options{Now: clock})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("studio-desk", "test"),
		Auth:      handlers.NewAuthHandler(authSvc),
		Tickets:   handlers.NewTicketsHandler(service.NewTicketService(tickets, fetcher, ticketquery.Builder{Now: clock}), time.UTC),
		Reference: handlers.NewReferenceHandler(service.NewReferenceService(repos.Reference, repos.Users, fetcher, nil, 0, logger)),
		Analytics: handlers.NewAnalyticsHandler(service.NewAnalyticsService(service.AnalyticsDependencies{
			Tickets: tickets, Fetcher: fetcher, Cache: analytics.NewMemoryCache(), TTL: time.Minute, Dispatcher: dispatcher, Metrics: metrics, Logger: logger, Now: clock,
		})),
		Templates:      handlers.NewTemplatesHandler(service.NewTemplateService(sessions, dispatcher, logger, clock)),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), repos.Users, false),
		Metrics:        metrics.Handler(),
	})
	return &testServer{app: app, authSvc: authSvc, metrics: metrics}
}

func (s *testServer) token(t *testing.T, email string) string {
	t.Helper()
	resp := s.do(t, fiber.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"pw"}`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Data struct {
			Auth struct {
				Token string `json:"token"`
			} `json:"auth"`
		} `json:"data"`
	}
	decode(t, resp.Body, &body)
	require.NotEmpty(t, body.Data.Auth.Token)
	return body.Data.Auth.Token
}

func (s *testServer) do(t *testing.T, method, path, token, payload string, headers map[string]string) *respWrapper {
	t.Helper()
	var reader io.Reader
	if payload != "" {
		reader = strings.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return &respWrapper{StatusCode: resp.StatusCode, Header: resp.Header.Get, Body: resp.Body}
}

type respWrapper struct {
	StatusCode int
	Header     func(string) string
	Body       io.ReadCloser
}

func decode(t *testing.T, r io.ReadCloser, v any) {
	t.Helper()
	defer r.Close()
	require.NoError(t, json.NewDecoder(r).Decode(v))
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, fiber.MethodGet, "/health/live", "", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = s.do(t, fiber.MethodGet, "/health/ready", "", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = s.do(t, fiber.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "studio_desk_http_requests_total")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, fiber.MethodPost, "/auth/login", "", `{"email":"admin@studio-desk.local","password":"nope"}`, nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	var body errorBody
	decode(t, resp.Body, &body)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, fiber.MethodGet, "/api/tickets", "", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	var body errorBody
	decode(t, resp.Body, &body)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestListTickets(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "arjun@studio-desk.local")

	resp := s.do(t, fiber.MethodGet, "/api/tickets?sort=priority&status=all&limit=20", token, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header(handlers.SessionIDHeader))
	assert.NotEmpty(t, resp.Header(observability.RequestIDHeader))

	var body struct {
		Data struct {
			Tickets []struct {
				ID       string                `json:"id"`
				Priority domain.TicketPriority `json:"priority"`
				Studio   *struct {
					Name string `json:"name"`
				} `json:"studio"`
				SLAState string `json:"sla_state"`
			} `json:"tickets"`
			Meta struct {
				Count         int               `json:"count"`
				Limit         int               `json:"limit"`
				Truncated     bool              `json:"truncated"`
				ActiveFilters int               `json:"active_filters"`
				Filters       map[string]string `json:"filters"`
			} `json:"meta"`
			Stats struct {
				Total int    `json:"total"`
				Scope string `json:"scope"`
			} `json:"stats"`
		} `json:"data"`
	}
	decode(t, resp.Body, &body)
	require.Len(t, body.Data.Tickets, 20)
	assert.Equal(t, 20, body.Data.Meta.Limit)
	assert.True(t, body.Data.Meta.Truncated)
	assert.Zero(t, body.Data.Meta.ActiveFilters)
	assert.Equal(t, "priority", body.Data.Meta.Filters["sort"])
	assert.Equal(t, 20, body.Data.Stats.Total)
	assert.Equal(t, "loaded_window", body.Data.Stats.Scope)
	for i := 1; i < len(body.Data.Tickets); i++ {
		assert.GreaterOrEqual(t, body.Data.Tickets[i-1].Priority.Rank(), body.Data.Tickets[i].Priority.Rank())
	}
	require.NotNil(t, body.Data.Tickets[0].Studio)
	assert.NotEmpty(t, body.Data.Tickets[0].SLAState)
}

func TestListTicketsValidation(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "arjun@studio-desk.local")

	resp := s.do(t, fiber.MethodGet, "/api/tickets?status=bogus&sort=sideways", token, "", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var body errorBody
	decode(t, resp.Body, &body)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.Len(t, body.Error.Details["problems"], 2)
}

func TestListTicketsFetchFailure(t *testing.T) {
	s := newTestServer(t, failingTickets{})
	token := s.token(t, "arjun@studio-desk.local")

	resp := s.do(t, fiber.MethodGet, "/api/tickets", token, "", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	var body struct {
		errorBody
		Data any `json:"data"`
	}
	decode(t, resp.Body, &body)
	assert.Equal(t, "FETCH_FAILED", body.Error.Code)
	assert.Equal(t, true, body.Error.Details["retryable"])
	assert.Nil(t, body.Data)
}

func TestTicketStatsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "arjun@studio-desk.local")

	resp := s.do(t, fiber.MethodGet, "/api/tickets/stats?status=new", token, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Data struct {
			Total int `json:"total"`
			New   int `json:"new"`
		} `json:"data"`
	}
	decode(t, resp.Body, &body)
	assert.Equal(t, body.Data.Total, body.Data.New)
}

func TestExportRequiresLead(t *testing.T) {
	s := newTestServer(t, nil)

	agent := s.token(t, "arjun@studio-desk.local")
	resp := s.do(t, fiber.MethodGet, "/api/tickets/export?format=csv", agent, "", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	lead := s.token(t, "riya@studio-desk.local")
	resp = s.do(t, fiber.MethodGet, "/api/tickets/export?format=csv&limit=5", lead, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header(fiber.HeaderContentType), "text/csv")
	assert.Contains(t, resp.Header(fiber.HeaderContentDisposition), "tickets-20260310-120000.csv")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), 6)

	resp = s.do(t, fiber.MethodGet, "/api/tickets/export?format=pdf", lead, "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReferenceEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "arjun@studio-desk.local")

	resp := s.do(t, fiber.MethodGet, "/api/categories", token, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var categories struct {
		Data []struct {
			ID            string `json:"id"`
			Subcategories []struct {
				ID string `json:"id"`
			} `json:"subcategories"`
		} `json:"data"`
	}
	decode(t, resp.Body, &categories)
	require.Len(t, categories.Data, 5)

	resp = s.do(t, fiber.MethodGet, "/api/users", token, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")

	resp = s.do(t, fiber.MethodGet, "/api/studios", token, "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAnalyticsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "arjun@studio-desk.local")

	resp := s.do(t, fiber.MethodGet, "/api/analytics?range=7d&studio_id=studio-sufc", token, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Data struct {
			Range       string `json:"range"`
			StudioID    string `json:"studioId"`
			Granularity string `json:"granularity"`
		} `json:"data"`
	}
	decode(t, resp.Body, &body)
	assert.Equal(t, "7d", body.Data.Range)
	assert.Equal(t, "day", body.Data.Granularity)

	resp = s.do(t, fiber.MethodGet, "/api/analytics?range=1y", token, "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTemplateEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "arjun@studio-desk.local")
	session := map[string]string{handlers.SessionIDHeader: "session-1"}

	resp := s.do(t, fiber.MethodPost, "/api/templates", token, `{"name":"  "}`, session)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, fiber.MethodPost, "/api/templates", token, `{"name":"Locker Key Lost","tags":"locker, key","suggested_title":"Lost key at [Studio]"}`, session)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "session-1", resp.Header(handlers.SessionIDHeader))
	var created struct {
		Data struct {
			ID       string   `json:"id"`
			Category string   `json:"category"`
			Tags     []string `json:"tags"`
			IsCustom bool     `json:"is_custom"`
		} `json:"data"`
	}
	decode(t, resp.Body, &created)
	assert.Equal(t, "Custom", created.Data.Category)
	assert.Equal(t, []string{"locker", "key"}, created.Data.Tags)
	assert.True(t, created.Data.IsCustom)

	resp = s.do(t, fiber.MethodGet, "/api/templates?search=locker", token, "", session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listing struct {
		Data struct {
			Templates []struct {
				ID string `json:"id"`
			} `json:"templates"`
			Total int `json:"total"`
		} `json:"data"`
	}
	decode(t, resp.Body, &listing)
	require.Len(t, listing.Data.Templates, 1)
	assert.Equal(t, created.Data.ID, listing.Data.Templates[0].ID)
	assert.Equal(t, 11, listing.Data.Total)

	resp = s.do(t, fiber.MethodGet, "/api/templates", token, "", map[string]string{handlers.SessionIDHeader: "session-2"})
	decode(t, resp.Body, &listing)
	assert.Equal(t, 10, listing.Data.Total)

	resp = s.do(t, fiber.MethodPost, "/api/templates/"+created.Data.ID+"/use", token, "", session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var prefill struct {
		Data struct {
			Title        string   `json:"title"`
			Placeholders []string `json:"placeholders"`
			UsageCount   int      `json:"usage_count"`
		} `json:"data"`
	}
	decode(t, resp.Body, &prefill)
	assert.Equal(t, "Lost key at [Studio]", prefill.Data.Title)
	assert.Equal(t, []string{"Studio"}, prefill.Data.Placeholders)
	assert.Equal(t, 1, prefill.Data.UsageCount)

	resp = s.do(t, fiber.MethodPost, "/api/templates/missing/duplicate", token, "", session)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp = s.do(t, fiber.MethodPost, "/api/templates/missing/use", token, "", session)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp = s.do(t, fiber.MethodDelete, "/api/templates/missing", token, "", session)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = s.do(t, fiber.MethodDelete, "/api/templates/booking-issue", token, "", session)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = s.do(t, fiber.MethodPost, "/api/templates/"+created.Data.ID+"/duplicate", token, "", session)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp = s.do(t, fiber.MethodDelete, "/api/templates/"+created.Data.ID, token, "", session)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = s.do(t, fiber.MethodGet, "/api/templates/categories", token, "", session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var categories struct {
		Data []string `json:"data"`
	}
	decode(t, resp.Body, &categories)
	assert.Equal(t, "Custom", categories.Data[0])

	resp = s.do(t, fiber.MethodPost, "/api/templates/reset", token, "", session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp.Body, &listing)
	assert.Equal(t, 10, listing.Data.Total)
}

func TestUnknownRouteRendersEnvelope(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, fiber.MethodGet, "/nowhere", "", "", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var body errorBody
	decode(t, resp.Body, &body)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestSessionIDGeneratedWhenMalformed(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "arjun@studio-desk.local")
	resp := s.do(t, fiber.MethodGet, "/api/templates/categories", token, "", map[string]string{handlers.SessionIDHeader: "bad id!"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := resp.Header(handlers.SessionIDHeader)
	assert.NotEqual(t, "bad id!", got)
	assert.Len(t, got, 36)
}
