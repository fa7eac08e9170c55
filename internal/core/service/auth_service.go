package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/identity/internal/core/domain"
	"github.com/storefront/identity/internal/core/ports"
)

const (
	maxLoginFailures = 5
	failureWindow    = 15 * time.Minute
	minPasswordLen   = 6
)

// AuthService implements registration, password login and token resolution.
type AuthService struct {
	repo     ports.UserRepository
	tokens   *TokenManager
	tokenTTL time.Duration
	avatars  ports.AvatarStore
	throttle ports.LoginThrottle
	events   ports.AuthEventRecorder
	log      zerolog.Logger
	now      func() time.Time
}

// AuthOption configures optional collaborators of AuthService.
type AuthOption func(*AuthService)

func WithAvatarStore(s ports.AvatarStore) AuthOption {
	return func(a *AuthService) { a.avatars = s }
}

func WithLoginThrottle(t ports.LoginThrottle) AuthOption {
	return func(a *AuthService) { a.throttle = t }
}

func WithEventRecorder(r ports.AuthEventRecorder) AuthOption {
	return func(a *AuthService) { a.events = r }
}

func NewAuthService(repo ports.UserRepository, tokens *TokenManager, tokenTTL time.Duration, log zerolog.Logger, opts ...AuthOption) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * 24 * time.Hour
	}
	s := &AuthService{repo: repo, tokens: tokens, tokenTTL: tokenTTL, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" || email == "" || len(in.Password) < minPasswordLen {
		return "", nil, domain.ErrInvalidCredentials
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return "", nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Address:      in.Address,
		City:         in.City,
		Country:      in.Country,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if in.Avatar != nil && s.avatars != nil {
		url, err := s.avatars.Upload(ctx, *in.Avatar)
		if err != nil {
			// The account is still usable without a picture.
			s.log.Warn().Err(err).Str("email", email).Msg("avatar upload failed")
		} else {
			user.Avatar = url
		}
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(created, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}

	s.record(domain.EventRegister, created.Email, created.ID, "")
	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return token, created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		n, err := s.throttle.Failures(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("throttle check failed, continuing")
		} else if n >= maxLoginFailures {
			return "", nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.fail(ctx, email, "unknown email")
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.fail(ctx, email, "password mismatch")
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("failed to reset login throttle")
		}
	}

	token, err := s.tokens.Issue(user, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}

	s.record(domain.EventLogin, user.Email, user.ID, "")
	return token, user, nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrTokenMissing
	}

	sub, err := s.tokens.Subject(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, sub)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}

func (s *AuthService) fail(ctx context.Context, email, reason string) {
	s.record(domain.EventLoginFailed, email, "", reason)
	if s.throttle == nil {
		return
	}
	if _, err := s.throttle.RecordFailure(ctx, email, failureWindow); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to record login failure")
	}
}

func (s *AuthService) record(t domain.AuthEventType, email, userID, reason string) {
	if s.events == nil {
		return
	}
	s.events.Record(domain.AuthEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Email:     email,
		UserID:    userID,
		Reason:    reason,
		Timestamp: s.now().UTC(),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
