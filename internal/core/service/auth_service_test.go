package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/identity/internal/core/domain"
	"github.com/storefront/identity/internal/core/ports"
)

func newAuthSvc(repo *stubUserRepo, opts ...AuthOption) *AuthService {
	return NewAuthService(repo, NewTokenManager("secret"), time.Hour, zerolog.Nop(), opts...)
}

func registerInput(email, password string) ports.RegisterInput {
	return ports.RegisterInput{Name: "Alice", Email: email, Password: password, City: "Lima"}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	rec := &stubRecorder{}
	svc := newAuthSvc(repo, WithEventRecorder(rec))

	token, user, err := svc.Register(context.Background(), registerInput(" Alice@Example.com ", "pass123"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if got := rec.types(); len(got) != 1 || got[0] != domain.EventRegister {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo())

	if _, _, err := svc.Register(context.Background(), registerInput("", "pass123")); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Register(context.Background(), registerInput("bob@example.com", "123")); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for short password, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo())

	_, _, _ = svc.Register(context.Background(), registerInput("bob@example.com", "pass123"))
	if _, _, err := svc.Register(context.Background(), registerInput("BOB@example.com", "pass456")); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_Avatar(t *testing.T) {
	upload := &ports.AvatarUpload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("png")}

	svc := newAuthSvc(newStubUserRepo(), WithAvatarStore(&stubAvatarStore{url: "https://cdn/a.png"}))
	in := registerInput("carol@example.com", "pass123")
	in.Avatar = upload
	_, user, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Avatar != "https://cdn/a.png" {
		t.Fatalf("expected avatar url, got %q", user.Avatar)
	}

	failing := newAuthSvc(newStubUserRepo(), WithAvatarStore(&stubAvatarStore{err: errors.New("s3 down")}))
	in = registerInput("dan@example.com", "pass123")
	in.Avatar = upload
	_, user, err = failing.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("avatar failure must not abort registration: %v", err)
	}
	if user.Avatar != "" {
		t.Fatalf("expected empty avatar, got %q", user.Avatar)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	throttle := newStubThrottle()
	svc := newAuthSvc(repo, WithLoginThrottle(throttle))

	if _, _, err := svc.Register(context.Background(), registerInput("carol@example.com", "s3cret")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "Carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user == nil || user.Email != "carol@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if len(throttle.resets) != 1 {
		t.Fatalf("expected throttle reset on success")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != user.ID {
		t.Fatalf("expected sub %s, got %v", user.ID, claims["sub"])
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	throttle := newStubThrottle()
	svc := newAuthSvc(newStubUserRepo(), WithLoginThrottle(throttle))

	_, _, _ = svc.Register(context.Background(), registerInput("dave@example.com", "goodpass"))
	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if throttle.failures["dave@example.com"] != 1 {
		t.Fatalf("expected one recorded failure, got %d", throttle.failures["dave@example.com"])
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo())

	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_Throttled(t *testing.T) {
	throttle := newStubThrottle()
	throttle.failures["eve@example.com"] = maxLoginFailures
	svc := newAuthSvc(newStubUserRepo(), WithLoginThrottle(throttle))

	if _, _, err := svc.Login(context.Background(), "eve@example.com", "whatever"); err != domain.ErrTooManyAttempts {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(repo)

	token, user, err := svc.Register(context.Background(), registerInput("frank@example.com", "pass123"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, got.ID)
	}

	if _, err := svc.Authenticate(context.Background(), ""); err != domain.ErrTokenMissing {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "garbage"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	// Deleted account.
	delete(repo.users, user.ID)
	if _, err := svc.Authenticate(context.Background(), token); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
