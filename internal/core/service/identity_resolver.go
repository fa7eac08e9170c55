package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/identity/internal/core/domain"
	"github.com/storefront/identity/internal/core/ports"
)

// IdentityResolver finds or creates the local account behind a Google
// identity. Email is matched first so that a password account signing in
// with Google under the same address is linked rather than duplicated.
type IdentityResolver struct {
	repo     ports.UserRepository
	tokens   *TokenManager
	tokenTTL time.Duration
	events   ports.AuthEventRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewIdentityResolver(repo ports.UserRepository, tokens *TokenManager, tokenTTL time.Duration, events ports.AuthEventRecorder, log zerolog.Logger) *IdentityResolver {
	if tokenTTL <= 0 {
		tokenTTL = 15 * 24 * time.Hour
	}
	return &IdentityResolver{repo: repo, tokens: tokens, tokenTTL: tokenTTL, events: events, log: log, now: time.Now}
}

// ResolveGoogle returns a fresh session token and the reconciled user.
func (r *IdentityResolver) ResolveGoogle(ctx context.Context, in ports.GoogleLoginInput) (string, *domain.User, error) {
	profile := in.Profile
	profile.Email = normalizeEmail(profile.Email)
	if profile.Email == "" {
		return "", nil, domain.ErrProviderDataInvalid
	}

	user, err := r.lookup(ctx, profile, in.FirebaseUID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = r.create(ctx, profile, in.FirebaseUID)
		if err != nil {
			return "", nil, err
		}
	case err != nil:
		return "", nil, fmt.Errorf("resolve google identity: %w", err)
	default:
		if err := r.merge(ctx, user, profile, in.FirebaseUID); err != nil {
			return "", nil, err
		}
	}

	token, err := r.tokens.Issue(user, r.tokenTTL)
	if err != nil {
		return "", nil, err
	}

	r.record(domain.EventGoogleLogin, user)
	return token, user, nil
}

// lookup tries email, then Google id, then the device identity.
func (r *IdentityResolver) lookup(ctx context.Context, p domain.ProviderProfile, firebaseUID string) (*domain.User, error) {
	user, err := r.repo.FindByEmail(ctx, p.Email)
	if !errors.Is(err, domain.ErrUserNotFound) {
		return user, err
	}

	if p.ExternalID != "" {
		user, err = r.repo.FindByGoogleID(ctx, p.ExternalID)
		if !errors.Is(err, domain.ErrUserNotFound) {
			return user, err
		}
	}

	if firebaseUID != "" {
		return r.repo.FindByFirebaseUID(ctx, firebaseUID)
	}
	return nil, domain.ErrUserNotFound
}

// merge backfills provider identifiers and refreshes the avatar, writing only
// when a field actually changed.
func (r *IdentityResolver) merge(ctx context.Context, user *domain.User, p domain.ProviderProfile, firebaseUID string) error {
	changed := false
	linked := false

	if user.GoogleID == "" && p.ExternalID != "" {
		user.GoogleID = p.ExternalID
		changed, linked = true, true
	}
	if user.FirebaseUID == "" && firebaseUID != "" {
		user.FirebaseUID = firebaseUID
		changed = true
	}
	if p.PhotoURL != "" && user.Avatar != p.PhotoURL {
		user.Avatar = p.PhotoURL
		changed = true
	}

	if !changed {
		return nil
	}

	user.UpdatedAt = r.now().UTC()
	if err := r.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("update google identity: %w", err)
	}
	if linked {
		r.record(domain.EventGoogleLinked, user)
		r.log.Info().Str("user_id", user.ID).Msg("google identity linked to existing account")
	}
	return nil
}

func (r *IdentityResolver) create(ctx context.Context, p domain.ProviderProfile, firebaseUID string) (*domain.User, error) {
	// Google accounts never log in by password; the hash only fills the slot.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	candidate := &domain.User{
		Email:             p.Email,
		Name:              p.Name,
		PasswordHash:      string(hash),
		GoogleID:          p.ExternalID,
		FirebaseUID:       firebaseUID,
		Avatar:            p.PhotoURL,
		Address:           domain.PlaceholderAddress,
		City:              domain.PlaceholderCity,
		Country:           domain.PlaceholderCountry,
		ProfileIncomplete: true,
		Role:              domain.RoleUser,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	user, created, err := r.repo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}
	if !created {
		// A concurrent sign-in for the same email won the insert.
		if err := r.merge(ctx, user, p, firebaseUID); err != nil {
			return nil, err
		}
		return user, nil
	}

	r.log.Info().Str("user_id", user.ID).Msg("user created from google sign-in")
	return user, nil
}

func (r *IdentityResolver) record(t domain.AuthEventType, user *domain.User) {
	if r.events == nil {
		return
	}
	r.events.Record(domain.AuthEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Email:     user.Email,
		UserID:    user.ID,
		Timestamp: r.now().UTC(),
	})
}
