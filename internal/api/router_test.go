package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/storefront/identity/internal/core/domain"
	"github.com/storefront/identity/internal/core/ports"
	"github.com/storefront/identity/internal/infrastructure/http/handlers"
)

type routerAuth struct{}

func (routerAuth) Register(context.Context, ports.RegisterInput) (string, *domain.User, error) {
	return "", nil, domain.ErrUserExists
}

func (routerAuth) Login(context.Context, string, string) (string, *domain.User, error) {
	return "", nil, domain.ErrInvalidCredentials
}

func (routerAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	switch token {
	case "admin":
		return &domain.User{ID: "a1", Name: "Root", Role: domain.RoleAdmin}, nil
	case "user":
		return &domain.User{ID: "u1", Name: "Alice", Role: domain.RoleUser}, nil
	case "gone":
		return nil, domain.ErrUserNotFound
	}
	return nil, domain.ErrTokenInvalid
}

type routerResolver struct{}

func (routerResolver) ResolveGoogle(context.Context, ports.GoogleLoginInput) (string, *domain.User, error) {
	return "t", &domain.User{ID: "g1"}, nil
}

// The prometheus middleware registers collectors globally, so the router is
// built once for all cases.
func TestRouter(t *testing.T) {
	e := NewRouter(Deps{
		Auth:     routerAuth{},
		Resolver: routerResolver{},
		Checks:   map[string]handlers.Check{"mongodb": func(context.Context) error { return nil }},
		Log:      zerolog.Nop(),
	})

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{name: "me without token", method: http.MethodGet, path: "/user/me", want: http.StatusUnauthorized},
		{name: "me with bad token", method: http.MethodGet, path: "/user/me", token: "forged", want: http.StatusUnauthorized},
		{name: "me for deleted user", method: http.MethodGet, path: "/user/me", token: "gone", want: http.StatusUnauthorized},
		{name: "me", method: http.MethodGet, path: "/user/me", token: "user", want: http.StatusOK},
		{name: "admin as user", method: http.MethodGet, path: "/user/admin/ping", token: "user", want: http.StatusForbidden},
		{name: "admin", method: http.MethodGet, path: "/user/admin/ping", token: "admin", want: http.StatusOK},
		{name: "login mismatch", method: http.MethodPost, path: "/user/login", body: `{"email":"a@example.com","password":"pw"}`, want: http.StatusBadRequest},
		{name: "logout", method: http.MethodPost, path: "/user/logout", want: http.StatusOK},
		{name: "liveness", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "readiness", method: http.MethodGet, path: "/health/ready", want: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", want: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
