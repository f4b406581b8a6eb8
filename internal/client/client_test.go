package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/export"
	"github.com/studiodesk/studio-desk/internal/ticketquery"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestLoginThenListTickets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "riya@studio-desk.local", body["email"])
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"user": map[string]any{"id": "user-ops", "role": "lead"},
			"auth": map[string]any{"token": "tok-1"},
		}})
	})
	mux.HandleFunc("GET /api/tickets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "critical", r.URL.Query().Get("priority"))
		assert.Equal(t, "unassigned", r.URL.Query().Get("assignee"))
		w.Header().Set(SessionIDHeader, "sess-9")
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"tickets": []map[string]any{{"id": "tkt-00001", "priority": "critical"}},
			"meta":    map[string]any{"count": 1, "limit": 100, "truncated": false},
			"stats":   map[string]any{"total": 1, "critical": 1, "scope": "loaded_window"},
		}})
	})
	mux.HandleFunc("GET /api/templates", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sess-9", r.Header.Get(SessionIDHeader))
		assert.Equal(t, "safety", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"templates": []any{}, "total": 10}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	ctx := context.Background()

	login, err := c.Login(ctx, "riya@studio-desk.local", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleLead, login.User.Role)

	state := ticketquery.State{Priority: domain.Some(domain.TicketPriorityCritical), Assignee: ticketquery.Unassigned()}
	list, err := c.ListTickets(ctx, state)
	require.NoError(t, err)
	require.Len(t, list.Tickets, 1)
	assert.Equal(t, "tkt-00001", list.Tickets[0].ID)
	assert.Equal(t, 1, list.Stats.Critical)
	assert.Equal(t, "sess-9", c.SessionID())

	templates, err := c.Templates(ctx, TemplateFilter{Search: "safety"})
	require.NoError(t, err)
	assert.Equal(t, 10, templates.Total)
}

func TestErrorEnvelopeMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": map[string]any{
			"code":    "FETCH_FAILED",
			"message": "could not load tickets",
			"details": map[string]any{"resource": "tickets", "retryable": true},
		}})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.ListTickets(context.Background(), ticketquery.State{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "FETCH_FAILED", apiErr.Code)
	assert.True(t, apiErr.Retryable())
	assert.True(t, IsCode(err, "FETCH_FAILED"))
}

func TestRetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": map[string]any{"code": "FETCH_FAILED"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []string{"Custom", "Booking"}})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RetryCount: 2, RetryWait: time.Millisecond})
	categories, err := c.TemplateCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Custom", "Booking"}, categories)
	assert.EqualValues(t, 2, calls.Load())
}

func TestNonEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(Config{BaseURL: srv.URL}).Ping(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "HTTP_502", apiErr.Code)
	assert.False(t, apiErr.Retryable())
}

func TestTemplateMutations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/templates/{id}/use", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"template_id": r.PathValue("id"), "title": "Issue at [Studio]", "placeholders": []string{"Studio"}, "usage_count": 3,
		}})
	})
	mux.HandleFunc("DELETE /api/templates/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "booking-issue" {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": map[string]any{"code": "FORBIDDEN", "message": "built-in templates cannot be deleted"}})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "tok"})
	ctx := context.Background()

	prefill, err := c.UseTemplate(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", prefill.TemplateID)
	assert.Equal(t, 3, prefill.UsageCount)

	require.NoError(t, c.DeleteTemplate(ctx, "tpl-1"))
	assert.True(t, IsCode(c.DeleteTemplate(ctx, "booking-issue"), "FORBIDDEN"))
}

func TestExportTickets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="tickets-20260310-120000.csv"`)
		w.Header().Set("X-Export-Truncated", "true")
		_, _ = w.Write([]byte("Ticket,Title\nTKT-00001,Broken mat\n"))
	}))
	defer srv.Close()

	out, err := New(Config{BaseURL: srv.URL}).ExportTickets(context.Background(), ticketquery.State{}, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "tickets-20260310-120000.csv", out.Filename)
	assert.True(t, out.Truncated)
	assert.Contains(t, string(out.Body), "TKT-00001")
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Config{BaseURL: url, Timeout: time.Second}).Studios(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.MethodGet, netErr.Operation)
}
