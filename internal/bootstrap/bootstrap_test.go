package bootstrap

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studiodesk/studio-desk/internal/config"
	"github.com/studiodesk/studio-desk/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Name: "studio-desk", Version: "test", Timezone: "UTC", RequestTimeoutSeconds: 5},
		Auth:      config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 60, BcryptCost: 4, BootstrapPassword: "pw"},
		List:      config.ListConfig{DefaultLimit: 50, MaxLimit: 200},
		Fetch:     config.FetchConfig{Timeout: time.Second, MaxAttempts: 2, InitialBackoff: time.Millisecond},
		Templates: config.TemplatesConfig{Store: "memory", SessionTTL: time.Hour},
		Analytics: config.AnalyticsConfig{RefreshCron: "@every 5m", SnapshotTTL: time.Minute},
	}
}

func TestBuildWithDataset(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ds := repository.DemoDataset(now, 40)
	srv, err := Build(context.Background(), testConfig(), zap.NewNop(), Options{
		Now:     func() time.Time { return now },
		Dataset: &ds,
	})
	require.NoError(t, err)
	defer srv.Close()

	assert.Equal(t, 2, srv.Worker.Jobs())

	resp, err := srv.App.Test(httptest.NewRequest("GET", "/health/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"email":"admin@studio-desk.local","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = srv.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestBuildRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Analytics.RefreshCron = "every so often"
	ds := repository.DemoDataset(time.Now(), 5)
	_, err := Build(context.Background(), cfg, zap.NewNop(), Options{Dataset: &ds})
	assert.ErrorContains(t, err, "worker")
}

func TestBuildRejectsMissingSeedFile(t *testing.T) {
	cfg := testConfig()
	cfg.Templates.SeedFile = "/nonexistent/seed.yaml"
	ds := repository.DemoDataset(time.Now(), 5)
	_, err := Build(context.Background(), cfg, zap.NewNop(), Options{Dataset: &ds})
	assert.ErrorContains(t, err, "template seed")
}
