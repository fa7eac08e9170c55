package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/identity/internal/client/state"
	"github.com/storefront/identity/internal/core/domain"
)

// Manager runs the interactive session flows of one client.
type Manager struct {
	tokens   *TokenStore
	creds    *CredentialCache
	flag     *ForceFlag
	gateway  Gateway
	store    *state.Store
	restorer *Restorer
	log      zerolog.Logger
	now      func() time.Time
}

// NewManager wires the client stores on top of slots.
func NewManager(slots SlotStorage, gateway Gateway, store *state.Store, log zerolog.Logger) *Manager {
	tokens := NewTokenStore(slots)
	creds := NewCredentialCache(slots)
	flag := NewForceFlag(slots)
	return &Manager{
		tokens:   tokens,
		creds:    creds,
		flag:     flag,
		gateway:  gateway,
		store:    store,
		restorer: NewRestorer(tokens, creds, flag, gateway, store, log),
		log:      log.With().Str("component", "session").Logger(),
		now:      time.Now,
	}
}

// State returns the current authentication state.
func (m *Manager) State() state.State {
	return m.store.Current()
}

// Restore runs start-up restoration.
func (m *Manager) Restore(ctx context.Context) state.State {
	return m.restorer.Restore(ctx)
}

// Login signs in with email and password. A password session replaces any
// cached Google identity.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	out := m.gateway.Login(ctx, email, password)
	if out.Kind != OutcomeOK {
		m.log.Warn().Err(out.Err).Stringer("outcome", out.Kind).Msg("password login failed")
		return nil, out.Err
	}

	m.restorer.supersede()
	if err := m.tokens.Save(ctx, out.Token); err != nil {
		return nil, err
	}
	if err := m.creds.Clear(ctx); err != nil {
		return nil, err
	}
	if err := m.creds.WriteSnapshot(ctx, out.User); err != nil {
		return nil, err
	}

	m.store.Dispatch(state.LoggedIn{User: out.User})
	m.log.Info().Str("user_id", out.User.ID).Msg("password login")
	return out.User, nil
}

// GoogleSignIn is the payload handed over by the Google sign-in SDK.
type GoogleSignIn struct {
	IDToken     string
	UserInfo    json.RawMessage
	FirebaseUID string
}

// GoogleSignIn exchanges a Google identity for a session. When the identity
// service cannot be reached the client falls back to a locally minted mock
// token backed by the cached profile.
func (m *Manager) GoogleSignIn(ctx context.Context, in GoogleSignIn) (*domain.User, error) {
	profile, err := domain.ParseProviderProfile(in.UserInfo)
	if err != nil {
		return nil, err
	}

	out := m.gateway.GoogleLogin(ctx, GoogleLoginRequest{
		IDToken:     in.IDToken,
		UserInfo:    in.UserInfo,
		FirebaseUID: in.FirebaseUID,
	})

	rec := domain.CredentialRecord{
		Provider:    domain.ProviderGoogle,
		ExternalID:  profile.ExternalID,
		Email:       profile.Email,
		DisplayName: profile.Name,
		AvatarURL:   profile.PhotoURL,
		Timestamp:   m.now().UTC(),
	}

	switch out.Kind {
	case OutcomeOK:
		m.restorer.supersede()
		if err := m.creds.Write(ctx, rec); err != nil {
			return nil, err
		}
		if err := m.creds.WriteSnapshot(ctx, out.User); err != nil {
			return nil, err
		}
		if err := m.tokens.Save(ctx, out.Token); err != nil {
			return nil, err
		}
		m.store.Dispatch(state.LoggedIn{User: out.User})
		m.log.Info().Str("user_id", out.User.ID).Msg("google login")
		return out.User, nil

	case OutcomeUnreachable:
		rec.FallbackToken = nextMockToken()
		m.restorer.supersede()
		user := rec.User()
		// The token is installed only once the record carrying it is durable.
		// The snapshot is replaced so no field of a previous account survives.
		if err := m.creds.Write(ctx, rec); err != nil {
			return nil, err
		}
		if err := m.creds.WriteSnapshot(ctx, user); err != nil {
			return nil, err
		}
		if err := m.tokens.Save(ctx, rec.FallbackToken); err != nil {
			return nil, err
		}
		m.store.Dispatch(state.LoggedIn{User: user})
		m.log.Warn().Err(out.Err).Str("email", rec.Email).Msg("identity service unreachable, offline google session")
		return user, nil
	}

	m.log.Warn().Err(out.Err).Stringer("outcome", out.Kind).Msg("google login failed")
	return nil, out.Err
}

// Logout always wins: it invalidates in-flight restorations, clears every
// slot and publishes anonymous even when a storage call fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.restorer.supersede()
	err := errors.Join(m.tokens.Delete(ctx), m.creds.Clear(ctx))
	m.store.Dispatch(state.LoggedOut{})
	if err != nil {
		m.log.Error().Err(err).Msg("logout left stale slots")
		return err
	}
	m.log.Info().Msg("logged out")
	return nil
}

// RequestAccountSwitch logs out and forces the next start-up to begin from a
// clean slate.
func (m *Manager) RequestAccountSwitch(ctx context.Context) error {
	if err := m.flag.Set(ctx); err != nil {
		return fmt.Errorf("set force flag: %w", err)
	}
	return m.Logout(ctx)
}

// Refresh re-verifies the active token. Unlike restoration it surfaces
// rejections and deletes the token when the server refuses it. Cached
// identities are only returned for the account of the cached Google record.
func (m *Manager) Refresh(ctx context.Context) (*domain.User, error) {
	epoch := m.store.Epoch()

	token, ok, err := m.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrTokenMissing
	}
	rec, err := m.creds.Read(ctx)
	if err != nil {
		return nil, err
	}

	if domain.IsMockToken(token) {
		snap, err := m.creds.SnapshotOf(ctx, rec)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			return snap, nil
		}
	}

	out := m.gateway.Me(ctx, token)
	switch out.Kind {
	case OutcomeOK:
		err := m.restorer.guard(epoch, func() error { return m.creds.WriteSnapshot(ctx, out.User) })
		if errors.Is(err, errSuperseded) {
			return out.User, nil
		}
		if err != nil {
			return nil, err
		}
		m.store.DispatchAt(epoch, state.Refreshed{User: out.User})
		return out.User, nil

	case OutcomeRejected:
		err := m.restorer.guard(epoch, func() error { return m.tokens.Delete(ctx) })
		if errors.Is(err, errSuperseded) {
			return nil, out.Err
		}
		if err != nil {
			return nil, errors.Join(out.Err, err)
		}
		m.store.DispatchAt(epoch, state.SessionRejected{Message: out.Err.Error()})
		return nil, out.Err

	case OutcomeUnreachable:
		last, err := m.creds.LastKnown(ctx, rec)
		if err != nil {
			return nil, err
		}
		if last != nil {
			return last, nil
		}
		return nil, out.Err
	}
	return nil, out.Err
}

var mockSeq struct {
	sync.Mutex
	last int64
}

// nextMockToken returns a strictly increasing google_mock_<id> token.
func nextMockToken() string {
	mockSeq.Lock()
	defer mockSeq.Unlock()
	id := time.Now().UnixMilli()
	if id <= mockSeq.last {
		id = mockSeq.last + 1
	}
	mockSeq.last = id
	return domain.MockTokenPrefix + strconv.FormatInt(id, 10)
}
