package domain

import "errors"

// Gateway failures. All of them map to 401 except ErrForbidden.
var (
	ErrTokenMissing = errors.New("authentication token missing")
	ErrTokenInvalid = errors.New("authentication token invalid")
	ErrUserNotFound = errors.New("user not found")
	ErrForbidden    = errors.New("access forbidden")
)

// Credential and provider failures.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserExists          = errors.New("user already exists")
	ErrTooManyAttempts     = errors.New("too many failed login attempts")
	ErrProviderDataInvalid = errors.New("provider profile data invalid")
	ErrCredentialExpired   = errors.New("cached credential expired")
)

// ErrNetworkUnreachable marks a call that produced no response at all. It must
// never be treated as a credential rejection.
var ErrNetworkUnreachable = errors.New("identity service unreachable")
