package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/repository"
)

const referenceCachePrefix = "studio-desk:reference:"

// ReferenceService serves the lookup lists behind the filter dropdowns.
// Results are cached in Redis when a client is configured.
type ReferenceService struct {
	reference repository.ReferenceRepository
	users     repository.UserRepository
	fetcher   *Fetcher
	redis     *redis.Client
	ttl       time.Duration
	logger    *zap.Logger
}

// NewReferenceService constructs the service. client may be nil.
func NewReferenceService(reference repository.ReferenceRepository, users repository.UserRepository, fetcher *Fetcher, client *redis.Client, ttl time.Duration, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{reference: reference, users: users, fetcher: fetcher, redis: client, ttl: ttl, logger: logger}
}

// Categories lists active categories.
func (s *ReferenceService) Categories(ctx context.Context) ([]domain.Category, error) {
	return cachedFetch(ctx, s, "categories", s.reference.Categories)
}

// Subcategories lists active subcategories.
func (s *ReferenceService) Subcategories(ctx context.Context) ([]domain.Subcategory, error) {
	return cachedFetch(ctx, s, "subcategories", s.reference.Subcategories)
}

// Studios lists active studios.
func (s *ReferenceService) Studios(ctx context.Context) ([]domain.Studio, error) {
	return cachedFetch(ctx, s, "studios", s.reference.Studios)
}

// Users lists active staff with password hashes removed.
func (s *ReferenceService) Users(ctx context.Context) ([]domain.User, error) {
	return cachedFetch(ctx, s, "users", func(ctx context.Context) ([]domain.User, error) {
		users, err := s.users.List(ctx)
		for i := range users {
			users[i].PasswordHash = ""
		}
		return users, err
	})
}

func cachedFetch[T any](ctx context.Context, s *ReferenceService, resource string, load func(context.Context) ([]T, error)) ([]T, error) {
	key := referenceCachePrefix + resource
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var cached []T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("reference cache read failed", zap.String("resource", resource), zap.Error(err))
		}
	}

	items, err := fetch(ctx, s.fetcher, resource, load)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}

	if s.redis != nil && s.ttl > 0 {
		if payload, err := json.Marshal(items); err == nil {
			if err := s.redis.Set(ctx, key, payload, s.ttl).Err(); err != nil {
				s.logger.Warn("reference cache write failed", zap.String("resource", resource), zap.Error(err))
			}
		}
	}
	return items, nil
}
