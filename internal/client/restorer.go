package client

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/storefront/identity/internal/client/state"
	"github.com/storefront/identity/internal/core/domain"
)

// errSuperseded aborts a restoration overtaken by logout or login.
var errSuperseded = errors.New("restoration superseded")

// Restorer decides at start-up which identity, if any, to resume. Branches
// are evaluated in order and the first that commits ends the pass:
//
//  1. force-new-login flag: wipe everything, anonymous
//  2. cached Google record with a fallback token: reinstall it, authenticated
//  3. stored token: verify with the server (mock tokens use the snapshot)
//  4. map the verification outcome to a terminal state
type Restorer struct {
	tokens  *TokenStore
	creds   *CredentialCache
	flag    *ForceFlag
	gateway Gateway
	store   *state.Store
	log     zerolog.Logger

	mu sync.Mutex
}

func NewRestorer(tokens *TokenStore, creds *CredentialCache, flag *ForceFlag, gateway Gateway, store *state.Store, log zerolog.Logger) *Restorer {
	return &Restorer{
		tokens:  tokens,
		creds:   creds,
		flag:    flag,
		gateway: gateway,
		store:   store,
		log:     log.With().Str("component", "restorer").Logger(),
	}
}

// restoration is one pass. Every storage mutation and the final publish are
// skipped once epoch is no longer current.
type restoration struct {
	*Restorer
	epoch uint64
	hint  *domain.CredentialRecord
}

// Restore runs one restoration pass and returns the resulting state. When a
// logout or login overtakes the pass, its outcome is dropped and the current
// state is returned.
func (r *Restorer) Restore(ctx context.Context) state.State {
	p := &restoration{Restorer: r, epoch: r.store.Epoch()}
	if _, ok := r.store.DispatchAt(p.epoch, state.RestoreStarted{}); !ok {
		return r.store.Current()
	}

	ev, err := p.run(ctx)
	switch {
	case errors.Is(err, errSuperseded):
		r.log.Debug().Msg("restoration superseded, outcome dropped")
		return r.store.Current()
	case err != nil:
		r.log.Error().Err(err).Msg("restoration failed")
		ev = state.RestoreFailed{Message: err.Error()}
	}

	next, ok := r.store.DispatchAt(p.epoch, ev)
	if !ok {
		r.log.Debug().Msg("restoration superseded, outcome dropped")
	}
	return next
}

func (p *restoration) run(ctx context.Context) (state.Event, error) {
	if ev, done, err := p.checkForceFlag(ctx); done || err != nil {
		return ev, err
	}
	if ev, done, err := p.restoreGoogleSession(ctx); done || err != nil {
		return ev, err
	}
	return p.restoreServerSession(ctx)
}

func (p *restoration) checkForceFlag(ctx context.Context) (state.Event, bool, error) {
	set, err := p.flag.IsSet(ctx)
	if err != nil || !set {
		return nil, false, err
	}

	if err := p.mutate(func() error {
		if err := p.tokens.Delete(ctx); err != nil {
			return err
		}
		if err := p.creds.Clear(ctx); err != nil {
			return err
		}
		return p.flag.Clear(ctx)
	}); err != nil {
		return nil, true, err
	}

	p.log.Info().Msg("force new login requested, cached session discarded")
	return state.RestoredAnonymous{}, true, nil
}

func (p *restoration) restoreGoogleSession(ctx context.Context) (state.Event, bool, error) {
	rec, err := p.creds.Read(ctx)
	if err != nil || rec == nil {
		return nil, false, err
	}
	if rec.FallbackToken == "" {
		p.hint = rec
		return nil, false, nil
	}

	if err := p.mutate(func() error { return p.tokens.Save(ctx, rec.FallbackToken) }); err != nil {
		return nil, true, err
	}

	user, err := p.recordUser(ctx, rec)
	if err != nil {
		return nil, true, err
	}
	p.log.Info().Str("email", rec.Email).Msg("google session restored from cache")
	return state.Restored{User: user}, true, nil
}

func (p *restoration) restoreServerSession(ctx context.Context) (state.Event, error) {
	token, ok, err := p.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return state.RestoredAnonymous{}, nil
	}

	mock := domain.IsMockToken(token)
	if mock {
		snap, err := p.creds.SnapshotOf(ctx, p.hint)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			return state.Restored{User: snap}, nil
		}
	}

	out := p.gateway.Me(ctx, token)
	p.log.Debug().Stringer("outcome", out.Kind).Bool("mock", mock).Msg("token verified")

	switch out.Kind {
	case OutcomeOK:
		if err := p.mutate(func() error { return p.creds.WriteSnapshot(ctx, out.User) }); err != nil {
			return nil, err
		}
		return state.Restored{User: out.User}, nil

	case OutcomeRejected:
		if mock {
			last, err := p.lastKnown(ctx)
			if err != nil {
				return nil, err
			}
			if last != nil {
				p.log.Info().Msg("mock token rejected, recovered from cached identity")
				return state.Restored{User: last}, nil
			}
		}
		if err := p.mutate(func() error { return p.tokens.Delete(ctx) }); err != nil {
			return nil, err
		}
		p.log.Info().Err(out.Err).Msg("stored token rejected, session cleared")
		return state.RestoredAnonymous{}, nil

	case OutcomeUnreachable:
		last, err := p.lastKnown(ctx)
		if err != nil {
			return nil, err
		}
		p.log.Warn().Err(out.Err).Bool("cached", last != nil).Msg("identity service unreachable, token kept")
		if last != nil {
			return state.Restored{User: last}, nil
		}
		return state.RestoredAnonymous{}, nil
	}

	return state.RestoreFailed{Message: errorMessage(out.Err)}, nil
}

// lastKnown is the confirmed snapshot, else the identity of the cached Google
// record carried from step 2. A snapshot of another account is ignored.
func (p *restoration) lastKnown(ctx context.Context) (*domain.User, error) {
	return p.creds.LastKnown(ctx, p.hint)
}

// recordUser prefers the confirmed snapshot when it belongs to the same account.
func (p *restoration) recordUser(ctx context.Context, rec *domain.CredentialRecord) (*domain.User, error) {
	return p.creds.LastKnown(ctx, rec)
}

func (p *restoration) mutate(fn func() error) error {
	return p.guard(p.epoch, fn)
}

// guard runs fn only while epoch is current. Advances wait for a running fn,
// so a write that passed the check cannot land after a logout's clear.
func (r *Restorer) guard(epoch uint64, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.store.Valid(epoch) {
		return errSuperseded
	}
	return fn()
}

// supersede invalidates every in-flight restoration and refresh.
func (r *Restorer) supersede() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Advance()
}

func errorMessage(err error) string {
	if err == nil {
		return "session restoration failed"
	}
	return err.Error()
}
