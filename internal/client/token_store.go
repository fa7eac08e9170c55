package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/storefront/identity/internal/core/domain"
)

// TokenStore holds the single active session token.
type TokenStore struct {
	slots SlotStorage
	now   func() time.Time
}

func NewTokenStore(slots SlotStorage) *TokenStore {
	return &TokenStore{slots: slots, now: time.Now}
}

// Save replaces the active session with token.
func (s *TokenStore) Save(ctx context.Context, token string) error {
	raw, err := json.Marshal(domain.Session{Token: token, IssuedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.slots.Set(ctx, SlotToken, raw); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Get returns the active token; ok is false when no session is stored.
func (s *TokenStore) Get(ctx context.Context) (token string, ok bool, err error) {
	sess, err := s.Session(ctx)
	if err != nil || sess == nil {
		return "", false, err
	}
	return sess.Token, true, nil
}

// Session returns the stored session or nil.
func (s *TokenStore) Session(ctx context.Context) (*domain.Session, error) {
	raw, ok, err := s.slots.Get(ctx, SlotToken)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.Token == "" {
		// Unreadable sessions are dropped rather than resumed.
		if err := s.slots.Delete(ctx, SlotToken); err != nil {
			return nil, fmt.Errorf("drop corrupt token: %w", err)
		}
		return nil, nil
	}
	return &sess, nil
}

// Delete ends the active session. Deleting an empty store is a no-op.
func (s *TokenStore) Delete(ctx context.Context) error {
	if err := s.slots.Delete(ctx, SlotToken); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
