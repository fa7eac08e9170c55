// Package client implements the session lifecycle of an identity client:
// durable token and credential slots, start-up restoration and the
// interactive login and logout flows.
package client

import (
	"context"
	"sync"
)

// Slot names. Each holds exactly one value.
const (
	SlotToken            = "token"
	SlotGoogleCredential = "google_credential"
	SlotUserSnapshot     = "user_snapshot"
	SlotForceNewLogin    = "force_new_login"
)

// SlotStorage is the durable key-value layer behind the client stores.
// Set overwrites; multi-field values are written as a single value.
type SlotStorage interface {
	Get(ctx context.Context, slot string) ([]byte, bool, error)
	Set(ctx context.Context, slot string, value []byte) error
	Delete(ctx context.Context, slots ...string) error
}

// MemoryStorage is a process-local SlotStorage.
type MemoryStorage struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(_ context.Context, slot string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[slot]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStorage) Set(_ context.Context, slot string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, slots ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range slots {
		delete(m.slots, s)
	}
	return nil
}

// ForceFlag is the persisted "force new login" marker.
type ForceFlag struct {
	slots SlotStorage
}

func NewForceFlag(slots SlotStorage) *ForceFlag {
	return &ForceFlag{slots: slots}
}

func (f *ForceFlag) Set(ctx context.Context) error {
	return f.slots.Set(ctx, SlotForceNewLogin, []byte("1"))
}

func (f *ForceFlag) IsSet(ctx context.Context) (bool, error) {
	_, ok, err := f.slots.Get(ctx, SlotForceNewLogin)
	return ok, err
}

func (f *ForceFlag) Clear(ctx context.Context) error {
	return f.slots.Delete(ctx, SlotForceNewLogin)
}
