package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testRedis connects to TEST_REDIS_ADDR (default localhost:6379) and skips
// the test when no server answers.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := Connect(context.Background(), Config{Addr: addr, DB: 15, Timeout: time.Second})
	if err != nil {
		t.Skipf("redis unavailable, skipping: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSlotStorage_RoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	client := testRedis(t)
	slots := NewSlotStorage(client, "test-"+uuid.NewString())

	if _, ok, err := slots.Get(ctx, "token"); err != nil || ok {
		t.Fatalf("expected empty slot, got ok=%v err=%v", ok, err)
	}
	for _, slot := range []string{"token", "google_credential", "user_snapshot"} {
		if err := slots.Set(ctx, slot, []byte("v-"+slot)); err != nil {
			t.Fatalf("set %s: %v", slot, err)
		}
	}
	t.Cleanup(func() { _ = slots.Delete(ctx, "token", "google_credential", "user_snapshot") })

	val, ok, err := slots.Get(ctx, "token")
	if err != nil || !ok || string(val) != "v-token" {
		t.Fatalf("unexpected token slot: %q ok=%v err=%v", val, ok, err)
	}

	if err := slots.Delete(ctx, "google_credential", "user_snapshot"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, slot := range []string{"google_credential", "user_snapshot"} {
		if _, ok, _ := slots.Get(ctx, slot); ok {
			t.Fatalf("slot %s survived delete", slot)
		}
	}
	if _, ok, _ := slots.Get(ctx, "token"); !ok {
		t.Fatalf("unrelated slot deleted")
	}
	if err := slots.Delete(ctx); err != nil {
		t.Fatalf("empty delete: %v", err)
	}
}

func TestSlotStorage_DevicesAreIsolated(t *testing.T) {
	ctx := context.Background()
	client := testRedis(t)
	a := NewSlotStorage(client, "test-"+uuid.NewString())
	b := NewSlotStorage(client, "test-"+uuid.NewString())

	if err := a.Set(ctx, "token", []byte("jwt-a")); err != nil {
		t.Fatalf("set: %v", err)
	}
	t.Cleanup(func() { _ = a.Delete(ctx, "token") })

	if _, ok, _ := b.Get(ctx, "token"); ok {
		t.Fatalf("slot leaked across devices")
	}
}

func TestLoginThrottle_WindowAndReset(t *testing.T) {
	ctx := context.Background()
	throttle := NewLoginThrottle(testRedis(t))
	email := uuid.NewString() + "@Example.com"
	t.Cleanup(func() { _ = throttle.Reset(ctx, email) })

	for want := 1; want <= 3; want++ {
		n, err := throttle.RecordFailure(ctx, email, time.Minute)
		if err != nil || n != want {
			t.Fatalf("record failure: n=%d err=%v, want %d", n, err, want)
		}
	}
	if n, err := throttle.Failures(ctx, strings.ToLower(email)); err != nil || n != 3 {
		t.Fatalf("failures: n=%d err=%v", n, err)
	}

	if err := throttle.Reset(ctx, email); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := throttle.Failures(ctx, email); n != 0 {
		t.Fatalf("expected cleared counter, got %d", n)
	}
}

func TestLoginThrottle_WindowExpires(t *testing.T) {
	ctx := context.Background()
	throttle := NewLoginThrottle(testRedis(t))
	email := uuid.NewString() + "@example.com"
	t.Cleanup(func() { _ = throttle.Reset(ctx, email) })

	if _, err := throttle.RecordFailure(ctx, email, 100*time.Millisecond); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	// A later failure must not extend the window opened by the first one.
	if _, err := throttle.RecordFailure(ctx, email, time.Hour); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	time.Sleep(250 * time.Millisecond)

	if n, err := throttle.Failures(ctx, email); err != nil || n != 0 {
		t.Fatalf("window did not expire: n=%d err=%v", n, err)
	}
}
