// Package bootstrap assembles the dashboard server from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/studiodesk/studio-desk/internal/analytics"
	httptransport "github.com/studiodesk/studio-desk/internal/api/http"
	"github.com/studiodesk/studio-desk/internal/api/http/handlers"
	"github.com/studiodesk/studio-desk/internal/auth"
	"github.com/studiodesk/studio-desk/internal/config"
	"github.com/studiodesk/studio-desk/internal/events"
	"github.com/studiodesk/studio-desk/internal/observability"
	"github.com/studiodesk/studio-desk/internal/persistence"
	"github.com/studiodesk/studio-desk/internal/repository"
	"github.com/studiodesk/studio-desk/internal/service"
	"github.com/studiodesk/studio-desk/internal/templates"
	"github.com/studiodesk/studio-desk/internal/ticketquery"
	"github.com/studiodesk/studio-desk/internal/worker"
)

const (
	demoTickets       = 400
	referenceCacheTTL = 5 * time.Minute
)

// Server is an assembled, not yet listening, dashboard service.
type Server struct {
	App     *fiber.App
	Worker  *worker.Worker
	Metrics *observability.Metrics

	postgres *persistence.Postgres
	redis    *persistence.Redis
}

// Options override collaborators, mostly for tests.
type Options struct {
	Now     func() time.Time
	Dataset *repository.Dataset
}

// Build connects backing services and wires every handler. Without a
// POSTGRES_DSN the service runs on a generated demo dataset.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Server, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	metrics := observability.NewMetrics()
	srv := &Server{Metrics: metrics}

	var checks []handlers.DependencyCheck
	repos, err := srv.repositories(ctx, cfg, logger, opts)
	if err != nil {
		return nil, err
	}
	if srv.postgres.PoolHandle() != nil {
		checks = append(checks, handlers.DependencyCheck{Name: "postgres", Ping: srv.postgres.Ping})
	}

	srv.redis = persistence.NewRedis(ctx, cfg.Redis, logger)
	redisClient := srv.redis.ClientHandle()
	if redisClient != nil {
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Ping: srv.redis.Ping})
	}

	fetcher := service.NewFetcher(cfg.Fetch, logger, metrics)
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger, metrics))

	authService := service.NewAuthService(cfg.Auth, repos.Users, fetcher, logger)
	if cfg.Auth.BootstrapPassword != "" {
		n, err := authService.BootstrapPasswords(ctx, cfg.Auth.BootstrapPassword)
		if err != nil {
			srv.Close()
			return nil, fmt.Errorf("bootstrap passwords: %w", err)
		}
		logger.Info("bootstrap passwords applied", zap.Int("users", n))
	}

	sessions, memoryStore, err := templateSessions(cfg.Templates, redisClient, opts.Now)
	if err != nil {
		srv.Close()
		return nil, err
	}

	var cache analytics.Cache = analytics.NewMemoryCache()
	if redisClient != nil {
		cache = analytics.NewRedisCache(redisClient)
	}
	analyticsService := service.NewAnalyticsService(service.AnalyticsDependencies{
		Tickets:    repos.Tickets,
		Fetcher:    fetcher,
		Cache:      cache,
		TTL:        cfg.Analytics.SnapshotTTL,
		Location:   loc,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Now:        opts.Now,
	})

	srv.Worker, err = worker.New(worker.Config{RefreshCron: cfg.Analytics.RefreshCron}, analyticsService, memoryStore, logger)
	if err != nil {
		srv.Close()
		return nil, fmt.Errorf("worker: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ErrorHandler:          httptransport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks...),
		Auth:   handlers.NewAuthHandler(authService),
		Tickets: handlers.NewTicketsHandler(service.NewTicketService(repos.Tickets, fetcher, ticketquery.Builder{
			DefaultLimit: cfg.List.DefaultLimit,
			MaxLimit:     cfg.List.MaxLimit,
			Location:     loc,
			Now:          opts.Now,
		}), loc),
		Reference:      handlers.NewReferenceHandler(service.NewReferenceService(repos.Reference, repos.Users, fetcher, redisClient, referenceCacheTTL, logger)),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		Templates:      handlers.NewTemplatesHandler(service.NewTemplateService(sessions, dispatcher, logger, opts.Now)),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.Users, cfg.Auth.Disabled),
		Metrics:        metrics.Handler(),
	})
	srv.App = app
	return srv, nil
}

func (s *Server) repositories(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (repository.Repositories, error) {
	if opts.Dataset != nil {
		return repository.NewMemoryRepositories(*opts.Dataset), nil
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return repository.Repositories{}, fmt.Errorf("postgres: %w", err)
	}
	s.postgres = pg
	pool := pg.PoolHandle()
	if pool == nil {
		now := time.Now()
		if opts.Now != nil {
			now = opts.Now()
		}
		logger.Info("serving demo dataset", zap.Int("tickets", demoTickets))
		return repository.NewMemoryRepositories(repository.DemoDataset(now, demoTickets)), nil
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return repository.Repositories{}, fmt.Errorf("migrations: %w", err)
		}
	}
	return repository.NewPostgresRepositories(pool), nil
}

func templateSessions(cfg config.TemplatesConfig, client *redis.Client, now func() time.Time) (*templates.Sessions, *templates.MemoryStore, error) {
	seed, err := templates.DefaultSeed()
	if cfg.SeedFile != "" {
		seed, err = templates.LoadSeedFile(cfg.SeedFile)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("template seed: %w", err)
	}
	opts := templates.Options{AllowBuiltinDelete: cfg.AllowBuiltinDelete, Now: now}
	if cfg.Store == "redis" && client != nil {
		return templates.NewSessions(templates.NewRedisStore(client, cfg.SessionTTL), seed, opts), nil, nil
	}
	store := templates.NewMemoryStore(cfg.SessionTTL)
	return templates.NewSessions(store, seed, opts), store, nil
}

// Close releases backing connections.
func (s *Server) Close() {
	s.redis.Close()
	s.postgres.Close()
}
