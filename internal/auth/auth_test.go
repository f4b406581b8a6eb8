package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/repository"
	apperrors "github.com/studiodesk/studio-desk/pkg/util/errorutil"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	tm.now = func() time.Time { return testNow }

	token, err := tm.GenerateToken(domain.User{ID: "user-ops", Role: domain.UserRoleLead})
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(30*time.Minute), token.ExpiresAt)

	claims, err := tm.ParseToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-ops", claims.Subject)
	assert.Equal(t, domain.UserRoleLead, claims.Role)
}

func TestTokenRejectsExpiredAndForeign(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	tm.now = func() time.Time { return testNow }
	token, err := tm.GenerateToken(domain.User{ID: "user-ops", Role: domain.UserRoleLead})
	require.NoError(t, err)

	tm.now = func() time.Time { return testNow.Add(time.Hour) }
	_, err = tm.ParseToken(token.Value)
	require.Error(t, err)

	other := NewTokenManager("other", 30)
	_, err = other.ParseToken(token.Value)
	require.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	require.NoError(t, ComparePassword(hash, "s3cret"))
	require.Error(t, ComparePassword(hash, "wrong"))
}

func newAuthApp(t *testing.T, disabled bool, roles ...domain.UserRole) (*fiber.App, *TokenManager) {
	t.Helper()
	repos := repository.NewMemoryRepositories(repository.DemoDataset(testNow, 0))
	tm := NewTokenManager("secret", 30)
	mw := NewAuthMiddleware(tm, repos.Users, disabled)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	app.Get("/protected", mw.Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.SendString(string(principal.Role))
	})
	return app, tm
}

func TestMiddlewareAndRoles(t *testing.T) {
	app, tm := newAuthApp(t, false, domain.UserRoleLead, domain.UserRoleAdmin)

	lead, err := tm.GenerateToken(domain.User{ID: "user-ops", Role: domain.UserRoleLead})
	require.NoError(t, err)
	agent, err := tm.GenerateToken(domain.User{ID: "user-it", Role: domain.UserRoleAgent})
	require.NoError(t, err)
	ghost, err := tm.GenerateToken(domain.User{ID: "user-ghost", Role: domain.UserRoleAdmin})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: fiber.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", status: fiber.StatusUnauthorized},
		{name: "unknown user", header: "Bearer " + ghost.Value, status: fiber.StatusUnauthorized},
		{name: "agent forbidden", header: "Bearer " + agent.Value, status: fiber.StatusForbidden},
		{name: "lead allowed", header: "Bearer " + lead.Value, status: fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestMiddlewareDisabled(t *testing.T) {
	app, _ := newAuthApp(t, true, domain.UserRoleAdmin)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
