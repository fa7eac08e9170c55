package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/identity/internal/core/domain"
)

// ErrorStatus maps a domain error to its HTTP status and client message.
// ok is false for errors outside the domain taxonomy.
func ErrorStatus(err error) (code int, msg string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrTokenMissing),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusUnauthorized, rootMessage(err), true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.ErrForbidden.Error(), true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, domain.ErrInvalidCredentials.Error(), true
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, domain.ErrUserExists.Error(), true
	case errors.Is(err, domain.ErrProviderDataInvalid):
		return http.StatusBadRequest, domain.ErrProviderDataInvalid.Error(), true
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, domain.ErrTooManyAttempts.Error(), true
	}
	return 0, "", false
}

// httpError wraps a domain error so echo renders its mapped status. Errors
// outside the taxonomy pass through untouched and end up as 500s.
func httpError(err error) error {
	code, msg, ok := ErrorStatus(err)
	if !ok {
		return err
	}
	return echo.NewHTTPError(code, msg).SetInternal(err)
}

func rootMessage(err error) string {
	for _, sentinel := range []error{domain.ErrTokenMissing, domain.ErrTokenInvalid, domain.ErrUserNotFound} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
