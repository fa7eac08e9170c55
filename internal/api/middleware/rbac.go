package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/identity/internal/api/metrics"
	"github.com/storefront/identity/internal/core/domain"
)

// RequireRole lets the request through only when the user attached by Auth
// holds one of allowedRoles. It must run after Auth.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := UserFrom(c)
			if !ok {
				return unauthorized("token_missing", domain.ErrTokenMissing)
			}
			if _, ok := allowed[user.Role]; !ok {
				metrics.GatewayRejectionsTotal.WithLabelValues("forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrForbidden.Error()).SetInternal(domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

// IsAdmin is the admin-only guard.
func IsAdmin() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin)
}
