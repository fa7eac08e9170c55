package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/storefront/identity/internal/api/metrics"
	"github.com/storefront/identity/internal/core/domain"
	"github.com/storefront/identity/internal/core/ports"
)

// TokenCookie is the cookie consulted when no Authorization header is sent.
const TokenCookie = "token"

const userKey = "auth_user"

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// GatewayOption configures Auth.
type GatewayOption func(*gateway)

// WithRejectionRecorder audits every rejected request.
func WithRejectionRecorder(r ports.AuthEventRecorder) GatewayOption {
	return func(g *gateway) { g.events = r }
}

type gateway struct {
	events ports.AuthEventRecorder
}

// Auth is the authentication gateway. It reads the token from
// "Authorization: Bearer <token>", falling back to the token cookie, verifies
// it and attaches the resolved user to the context. Every failure is a 401.
func Auth(auth Authenticator, opts ...GatewayOption) echo.MiddlewareFunc {
	g := &gateway{}
	for _, opt := range opts {
		opt(g)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return g.reject("token_missing", domain.ErrTokenMissing)
			}

			start := time.Now()
			user, err := auth.Authenticate(c.Request().Context(), token)
			metrics.GatewayDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrTokenMissing):
					return g.reject("token_missing", domain.ErrTokenMissing)
				case errors.Is(err, domain.ErrTokenInvalid):
					return g.reject("token_invalid", domain.ErrTokenInvalid)
				case errors.Is(err, domain.ErrUserNotFound):
					return g.reject("user_not_found", domain.ErrUserNotFound)
				}
				return err
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}

// UserFrom returns the user attached by Auth.
func UserFrom(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(userKey).(*domain.User)
	return user, ok && user != nil
}

func extractToken(c echo.Context) string {
	if header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization)); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func (g *gateway) reject(reason string, err error) error {
	if g.events != nil {
		g.events.Record(domain.AuthEvent{
			ID:        uuid.NewString(),
			Type:      domain.EventGatewayRejects,
			Reason:    reason,
			Timestamp: time.Now().UTC(),
		})
	}
	return unauthorized(reason, err)
}

func unauthorized(reason string, err error) error {
	metrics.GatewayRejectionsTotal.WithLabelValues(reason).Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(err)
}
