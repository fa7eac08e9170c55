package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/identity/internal/api/middleware"
	"github.com/storefront/identity/internal/core/domain"
)

// currentUser returns the user attached by the auth gateway. A missing user
// means the route was registered without middleware.Auth.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, domain.ErrTokenMissing.Error()).SetInternal(domain.ErrTokenMissing)
	}
	return user, nil
}
