package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/studiodesk/studio-desk/internal/auth"
	"github.com/studiodesk/studio-desk/internal/config"
	"github.com/studiodesk/studio-desk/internal/domain"
	"github.com/studiodesk/studio-desk/internal/repository"
	apperrors "github.com/studiodesk/studio-desk/pkg/util/errorutil"
)

// AuthService coordinates dashboard login.
type AuthService struct {
	users      repository.UserRepository
	fetcher    *Fetcher
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, fetcher *Fetcher, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		fetcher:    fetcher,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Login authenticates staff by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.Token, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.Token{}, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := fetch(ctx, s.fetcher, "users", func(ctx context.Context) (*domain.User, error) {
		return s.users.GetByEmail(ctx, email)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, domain.Token{}, err
	}
	if !user.IsActive || user.PasswordHash == "" {
		return nil, domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, err := s.tokenMgr.GenerateToken(*user)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}
	user.PasswordHash = ""
	return user, token, nil
}

// BootstrapPasswords sets password for every active user that has none.
// It returns the number of users updated.
func (s *AuthService) BootstrapPasswords(ctx context.Context, password string) (int, error) {
	if password == "" {
		return 0, nil
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, user := range users {
		if user.PasswordHash != "" {
			continue
		}
		hash, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return updated, err
		}
		ok, err := s.users.SetPasswordHashIfEmpty(ctx, user.ID, hash)
		if err != nil {
			return updated, err
		}
		if ok {
			updated++
			s.logger.Info("bootstrap password set", zap.String("user_id", user.ID))
		}
	}
	return updated, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
