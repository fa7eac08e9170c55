package ports

import (
	"context"

	"github.com/storefront/identity/internal/core/domain"
)

// UserRepository defines persistence for user identities. Find methods return
// domain.ErrUserNotFound when no record matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	FindByFirebaseUID(ctx context.Context, uid string) (*domain.User, error)

	// Create inserts a new user, failing with domain.ErrUserExists when the
	// email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// CreateIfAbsent atomically inserts user unless a record with the same
	// email exists. It returns the stored record and whether it was created.
	CreateIfAbsent(ctx context.Context, user *domain.User) (*domain.User, bool, error)

	Update(ctx context.Context, user *domain.User) error
}
