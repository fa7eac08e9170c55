package client

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/storefront/identity/internal/client/state"
	"github.com/storefront/identity/internal/core/domain"
)

type stubGateway struct {
	mu     sync.Mutex
	me     Outcome
	login  Outcome
	google Outcome
	calls  []string
	// block, when set, stalls Me until it is closed.
	block chan struct{}
	// entered is closed when Me starts.
	entered chan struct{}
}

func (g *stubGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *stubGateway) Me(ctx context.Context, token string) Outcome {
	g.record("me:" + token)
	if g.entered != nil {
		close(g.entered)
	}
	if g.block != nil {
		<-g.block
	}
	return g.me
}

func (g *stubGateway) Login(_ context.Context, email, _ string) Outcome {
	g.record("login:" + email)
	return g.login
}

func (g *stubGateway) GoogleLogin(_ context.Context, req GoogleLoginRequest) Outcome {
	g.record("google:" + req.IDToken)
	return g.google
}

func (g *stubGateway) called() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

type fixture struct {
	slots   *MemoryStorage
	tokens  *TokenStore
	creds   *CredentialCache
	flag    *ForceFlag
	gateway *stubGateway
	store   *state.Store
	manager *Manager
}

func newFixture() *fixture {
	slots := NewMemoryStorage()
	gw := &stubGateway{}
	store := state.NewStore()
	return &fixture{
		slots:   slots,
		tokens:  NewTokenStore(slots),
		creds:   NewCredentialCache(slots),
		flag:    NewForceFlag(slots),
		gateway: gw,
		store:   store,
		manager: NewManager(slots, gw, store, zerolog.Nop()),
	}
}

func (f *fixture) token(ctx context.Context) string {
	tok, _, _ := f.tokens.Get(ctx)
	return tok
}

var (
	alice = &domain.User{ID: "u1", Email: "alice@example.com", Name: "Alice", Role: domain.RoleUser}
	carol = &domain.User{ID: "u3", Email: "carol@example.com", Name: "Carol", GoogleID: "g-3", Role: domain.RoleUser}
)
