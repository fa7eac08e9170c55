package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultSlotPrefix = "identity:device:"

// SlotStorage keeps the client-side session slots of one device in Redis.
// Key format: identity:device:<device_id>:<slot>
type SlotStorage struct {
	client *redis.Client
	prefix string
}

// NewSlotStorage scopes slot keys to deviceID.
func NewSlotStorage(client *redis.Client, deviceID string) *SlotStorage {
	return &SlotStorage{client: client, prefix: defaultSlotPrefix + deviceID + ":"}
}

// Get returns the slot value; ok is false when the slot is empty.
func (s *SlotStorage) Get(ctx context.Context, slot string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("slot get %s: %w", slot, err)
	}
	return val, true, nil
}

// Set overwrites the slot. Slots carry no Redis expiry; lifetime is decided
// by the readers.
func (s *SlotStorage) Set(ctx context.Context, slot string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+slot, value, 0).Err(); err != nil {
		return fmt.Errorf("slot set %s: %w", slot, err)
	}
	return nil
}

// Delete empties the slot. Deleting an empty slot is not an error.
func (s *SlotStorage) Delete(ctx context.Context, slots ...string) error {
	if len(slots) == 0 {
		return nil
	}
	keys := make([]string, len(slots))
	for i, slot := range slots {
		keys[i] = s.prefix + slot
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("slot delete: %w", err)
	}
	return nil
}
