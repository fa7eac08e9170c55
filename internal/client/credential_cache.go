package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/storefront/identity/internal/core/domain"
)

// CredentialCache stores the last Google identity and the last server-confirmed
// user. Both expire after domain.CredentialTTL; expiry is enforced on read.
type CredentialCache struct {
	slots SlotStorage
	now   func() time.Time
}

func NewCredentialCache(slots SlotStorage) *CredentialCache {
	return &CredentialCache{slots: slots, now: time.Now}
}

// Write replaces the cached record wholesale.
func (c *CredentialCache) Write(ctx context.Context, rec domain.CredentialRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = c.now().UTC()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := c.slots.Set(ctx, SlotGoogleCredential, raw); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Read returns the cached record, or nil when none is stored. An expired or
// unreadable record is purged together with the user snapshot.
func (c *CredentialCache) Read(ctx context.Context) (*domain.CredentialRecord, error) {
	raw, ok, err := c.slots.Get(ctx, SlotGoogleCredential)
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var rec domain.CredentialRecord
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Expired(c.now()) {
		return nil, c.Clear(ctx)
	}
	return &rec, nil
}

// Clear removes the record and the snapshot.
func (c *CredentialCache) Clear(ctx context.Context) error {
	if err := c.slots.Delete(ctx, SlotGoogleCredential, SlotUserSnapshot); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// WriteSnapshot stores user as the last confirmed identity.
func (c *CredentialCache) WriteSnapshot(ctx context.Context, user *domain.User) error {
	raw, err := json.Marshal(domain.UserSnapshot{User: *user, Timestamp: c.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.slots.Set(ctx, SlotUserSnapshot, raw); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Snapshot returns the last confirmed user, or nil when none is stored or it
// has expired.
func (c *CredentialCache) Snapshot(ctx context.Context) (*domain.User, error) {
	raw, ok, err := c.slots.Get(ctx, SlotUserSnapshot)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var snap domain.UserSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil || snap.Expired(c.now()) {
		if err := c.slots.Delete(ctx, SlotUserSnapshot); err != nil {
			return nil, fmt.Errorf("purge snapshot: %w", err)
		}
		return nil, nil
	}
	return &snap.User, nil
}

// SnapshotOf returns the snapshot only when it belongs to the account of rec.
// A nil rec accepts any snapshot.
func (c *CredentialCache) SnapshotOf(ctx context.Context, rec *domain.CredentialRecord) (*domain.User, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil || snap == nil {
		return nil, err
	}
	if rec != nil && !strings.EqualFold(snap.Email, rec.Email) {
		return nil, nil
	}
	return snap, nil
}

// LastKnown is the snapshot of rec's account, else the identity derived from
// rec itself. It is nil when neither is cached.
func (c *CredentialCache) LastKnown(ctx context.Context, rec *domain.CredentialRecord) (*domain.User, error) {
	snap, err := c.SnapshotOf(ctx, rec)
	if err != nil || snap != nil {
		return snap, err
	}
	if rec != nil {
		return rec.User(), nil
	}
	return nil, nil
}
