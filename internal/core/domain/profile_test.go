package domain

import (
	"errors"
	"testing"
)

func TestParseProviderProfile_KnownShapes(t *testing.T) {
	cases := map[string]string{
		"native":   `{"id":"g-1","email":"Alice@Example.com","name":"Alice","photo":"https://img/a.png"}`,
		"wrapped":  `{"idToken":"tok","user":{"id":"g-1","email":"alice@example.com","name":"Alice","photo":"https://img/a.png"}}`,
		"envelope": `{"type":"success","data":{"idToken":"tok","user":{"id":"g-1","email":"alice@example.com","name":"Alice","photo":"https://img/a.png"}}}`,
		"oidc":     `{"sub":"g-1","email":"alice@example.com","name":"Alice","picture":"https://img/a.png"}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := ParseProviderProfile([]byte(raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.ExternalID != "g-1" || p.Email != "alice@example.com" || p.Name != "Alice" || p.PhotoURL != "https://img/a.png" {
				t.Fatalf("unexpected profile: %+v", p)
			}
		})
	}
}

func TestParseProviderProfile_NameDefaultsToLocalPart(t *testing.T) {
	p, err := ParseProviderProfile([]byte(`{"id":"g-2","email":"bob@example.com"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "bob" {
		t.Fatalf("expected name bob, got %q", p.Name)
	}
}

func TestParseProviderProfile_EmptyProviderID(t *testing.T) {
	p, err := ParseProviderProfile([]byte(`{"sub":"","email":"a@example.com"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ExternalID != "" || p.Email != "a@example.com" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestParseProviderProfile_FailsClosed(t *testing.T) {
	cases := map[string]string{
		"not json":       `nope`,
		"array":          `[1,2]`,
		"unknown shape":  `{"userId":"g-1","mail":"a@example.com"}`,
		"missing email":  `{"id":"g-1","name":"Alice"}`,
		"bad email":      `{"id":"g-1","email":"alice"}`,
		"cancelled":      `{"type":"cancelled","data":null}`,
		"too deep":       `{"data":{"data":{"data":{"id":"g","email":"a@example.com"}}}}`,
		"user scalar":    `{"user":"alice"}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseProviderProfile([]byte(raw)); !errors.Is(err, ErrProviderDataInvalid) {
				t.Fatalf("expected ErrProviderDataInvalid, got %v", err)
			}
		})
	}
}
