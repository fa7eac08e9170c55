package ports

import (
	"context"
	"time"
)

// AvatarStore uploads profile pictures and returns their public URL.
type AvatarStore interface {
	Upload(ctx context.Context, upload AvatarUpload) (string, error)
}

// LoginThrottle counts failed password attempts per email.
type LoginThrottle interface {
	// Failures returns the failed attempts recorded in the current window.
	Failures(ctx context.Context, email string) (int, error)
	// RecordFailure increments the failure count inside window.
	RecordFailure(ctx context.Context, email string, window time.Duration) (int, error)
	Reset(ctx context.Context, email string) error
}
