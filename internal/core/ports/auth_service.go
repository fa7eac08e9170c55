package ports

import (
	"context"
	"io"

	"github.com/storefront/identity/internal/core/domain"
)

// RegisterInput carries the multipart registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
	City     string
	Country  string
	Avatar   *AvatarUpload // optional
}

// AvatarUpload is an uploaded profile picture.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// GoogleLoginInput is the trusted client-supplied Google identity.
type GoogleLoginInput struct {
	IDToken     string
	Profile     domain.ProviderProfile
	FirebaseUID string // optional device identity hint
}

// AuthService issues session tokens for the password and registration paths
// and resolves bearer tokens back to users.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// IdentityResolver reconciles a Google identity with a local account.
type IdentityResolver interface {
	ResolveGoogle(ctx context.Context, in GoogleLoginInput) (string, *domain.User, error)
}
