package domain

import (
	"strings"
	"time"
)

// ProviderGoogle is the only third-party provider the client caches.
const ProviderGoogle = "google"

// MockTokenPrefix marks tokens synthesized on the client when the backend
// could not be reached during Google sign-in.
const MockTokenPrefix = "google_mock_"

// CredentialTTL is the maximum age of a cached CredentialRecord.
const CredentialTTL = 15 * 24 * time.Hour

// IsMockToken reports whether token was synthesized locally.
func IsMockToken(token string) bool {
	return strings.HasPrefix(token, MockTokenPrefix)
}

// Session is the single active bearer token on a client.
type Session struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issuedAt"`
}

// CredentialRecord is the cached provider identity of the last Google sign-in.
// FallbackToken is set only when the backend was unreachable at sign-in time.
type CredentialRecord struct {
	Provider      string    `json:"provider"`
	ExternalID    string    `json:"externalId"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	FallbackToken string    `json:"fallbackToken,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Expired reports whether the record is older than CredentialTTL at now.
func (r *CredentialRecord) Expired(now time.Time) bool {
	return now.Sub(r.Timestamp) > CredentialTTL
}

// User derives a user snapshot from the cached provider identity.
func (r *CredentialRecord) User() *User {
	return &User{
		Email:    r.Email,
		Name:     r.DisplayName,
		GoogleID: r.ExternalID,
		Avatar:   r.AvatarURL,
		Role:     RoleUser,
	}
}

// UserSnapshot is the last user payload confirmed by the server, kept for
// offline recovery. It shares the credential TTL.
type UserSnapshot struct {
	User      User      `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// Expired reports whether the snapshot is older than CredentialTTL at now.
func (s *UserSnapshot) Expired(now time.Time) bool {
	return now.Sub(s.Timestamp) > CredentialTTL
}
