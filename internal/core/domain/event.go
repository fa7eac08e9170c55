package domain

import "time"

// AuthEventType classifies entries of the auth audit trail.
type AuthEventType string

const (
	EventLogin          AuthEventType = "login"
	EventLoginFailed    AuthEventType = "login_failed"
	EventRegister       AuthEventType = "register"
	EventGoogleLogin    AuthEventType = "google_login"
	EventGoogleLinked   AuthEventType = "google_linked"
	EventGatewayRejects AuthEventType = "gateway_rejected"
)

// AuthEvent is a single audit trail entry.
type AuthEvent struct {
	ID        string
	Type      AuthEventType
	Email     string
	UserID    string // optional
	Reason    string // optional
	Timestamp time.Time
}
