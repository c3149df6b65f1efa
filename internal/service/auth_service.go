package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/auth"
	"github.com/spec-kit/campus-helpdesk/internal/config"
	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	limiter    *loginLimiter
	bcryptCost int
}

// NewAuthService builds the service. The redis client may be nil, in which
// case login rate limiting is disabled.
func NewAuthService(cfg config.Config, users repository.UserRepository, redisClient *redis.Client, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		limiter:    newLoginLimiter(redisClient, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow(), logger),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a new account. Self-registration always yields a
// reporter; role escalation is an admin operation.
func (s *AuthService) Register(ctx context.Context, name, email, password, department string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if name == "" || email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("name, email and password are required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) && !apperrors.IsNotFound(err) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleReporter,
		Department:   department,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates a user, stamps the last-login time and issues a
// role-bearing token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if !s.limiter.allow(ctx, email) {
		return nil, "", time.Time{}, apperrors.NewDomainError(
			"RATE_LIMITED", "too many login attempts, try again later", 429, nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || apperrors.IsNotFound(err) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err == nil {
		user.LastLoginAt = &now
	}
	s.limiter.reset(ctx, email)

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// loginLimiter is a fixed-window counter in Redis keyed by email. It fails
// open: when Redis is unreachable, logins proceed.
type loginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	logger      *zap.Logger
}

func newLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration, logger *zap.Logger) *loginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &loginLimiter{client: client, maxAttempts: maxAttempts, window: window, logger: logger}
}

func (l *loginLimiter) allow(ctx context.Context, email string) bool {
	if l.client == nil || email == "" {
		return true
	}
	key := "login_attempts:" + email
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return true
	}
	if count == 1 {
		l.client.Expire(ctx, key, l.window)
	}
	return count <= int64(l.maxAttempts)
}

func (l *loginLimiter) reset(ctx context.Context, email string) {
	if l.client == nil || email == "" {
		return
	}
	l.client.Del(ctx, "login_attempts:"+email)
}
