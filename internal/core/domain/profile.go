package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ProviderProfile is the normalized identity reported by Google sign-in,
// whatever shape the provider SDK produced.
type ProviderProfile struct {
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	PhotoURL   string `json:"photoUrl,omitempty"`
}

// nativeUser is the sign-in SDK user object: {id, email, name, photo}.
type nativeUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// oidcUser is the OpenID userinfo object: {sub, email, name, picture}.
type oidcUser struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ParseProviderProfile maps every known userInfo shape to a ProviderProfile:
//
//	{"id": ..., "email": ..., "photo": ...}             native user
//	{"user": {native user}, "idToken": ...}             sign-in result
//	{"type": "success", "data": {"user": {...}}}        sign-in response envelope
//	{"sub": ..., "email": ..., "picture": ...}          OpenID userinfo
//
// Any other shape, or a profile without a usable email, yields
// ErrProviderDataInvalid. An empty provider id is accepted; such accounts are
// matched by email alone.
func ParseProviderProfile(raw []byte) (ProviderProfile, error) {
	return parseProfile(raw, 0)
}

func parseProfile(raw []byte, depth int) (ProviderProfile, error) {
	if depth > 2 {
		return ProviderProfile{}, fmt.Errorf("%w: nesting too deep", ErrProviderDataInvalid)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return ProviderProfile{}, fmt.Errorf("%w: not an object", ErrProviderDataInvalid)
	}

	if t, ok := fields["type"]; ok {
		var kind string
		if err := json.Unmarshal(t, &kind); err != nil || kind != "success" {
			return ProviderProfile{}, fmt.Errorf("%w: sign-in did not succeed", ErrProviderDataInvalid)
		}
	}

	switch {
	case isObject(fields["data"]):
		return parseProfile(fields["data"], depth+1)
	case isObject(fields["user"]):
		return parseProfile(fields["user"], depth+1)
	case has(fields, "sub"):
		var u oidcUser
		if err := json.Unmarshal(raw, &u); err != nil {
			return ProviderProfile{}, fmt.Errorf("%w: %v", ErrProviderDataInvalid, err)
		}
		return normalize(ProviderProfile{ExternalID: u.Sub, Email: u.Email, Name: u.Name, PhotoURL: u.Picture})
	case has(fields, "id"):
		var u nativeUser
		if err := json.Unmarshal(raw, &u); err != nil {
			return ProviderProfile{}, fmt.Errorf("%w: %v", ErrProviderDataInvalid, err)
		}
		return normalize(ProviderProfile{ExternalID: u.ID, Email: u.Email, Name: u.Name, PhotoURL: u.Photo})
	}

	return ProviderProfile{}, fmt.Errorf("%w: unrecognized shape", ErrProviderDataInvalid)
}

func normalize(p ProviderProfile) (ProviderProfile, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.ExternalID = strings.TrimSpace(p.ExternalID)
	p.Name = strings.TrimSpace(p.Name)
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return ProviderProfile{}, fmt.Errorf("%w: missing email", ErrProviderDataInvalid)
	}
	if p.Name == "" {
		p.Name = p.Email[:strings.Index(p.Email, "@")]
	}
	return p, nil
}

func has(fields map[string]json.RawMessage, key string) bool {
	_, ok := fields[key]
	return ok
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
