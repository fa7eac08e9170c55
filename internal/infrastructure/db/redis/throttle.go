package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttlePrefix = "identity:login_failures:"

// incrWithExpiry increments the counter and starts its window on first hit.
var incrWithExpiry = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return count
`)

// LoginThrottle counts failed password logins per email.
// Key format: identity:login_failures:<email>
type LoginThrottle struct {
	client *redis.Client
}

// NewLoginThrottle creates a LoginThrottle wrapping the given Redis client.
func NewLoginThrottle(client *redis.Client) *LoginThrottle {
	return &LoginThrottle{client: client}
}

// Failures returns the failures recorded in the current window.
func (t *LoginThrottle) Failures(ctx context.Context, email string) (int, error) {
	n, err := t.client.Get(ctx, t.key(email)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("throttle get: %w", err)
	}
	return n, nil
}

// RecordFailure increments the failure count; the window starts on the first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string, window time.Duration) (int, error) {
	n, err := incrWithExpiry.Run(ctx, t.client, []string{t.key(email)}, window.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("throttle record: %w", err)
	}
	return n, nil
}

// Reset clears the failure count after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	return t.client.Del(ctx, t.key(email)).Err()
}

func (t *LoginThrottle) key(email string) string {
	return throttlePrefix + strings.ToLower(email)
}
