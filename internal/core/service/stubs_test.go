package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/storefront/identity/internal/core/domain"
	"github.com/storefront/identity/internal/core/ports"
)

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User // keyed by id
	seq     int
	updates int
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) FindByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.GoogleID != "" && u.GoogleID == googleID })
}

func (r *stubUserRepo) FindByFirebaseUID(_ context.Context, uid string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.FirebaseUID != "" && u.FirebaseUID == uid })
}

func (r *stubUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	created, ok, err := r.CreateIfAbsent(ctx, user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUserExists
	}
	return created, nil
}

func (r *stubUserRepo) CreateIfAbsent(_ context.Context, user *domain.User) (*domain.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return cloneUser(u), false, nil
		}
	}
	r.seq++
	stored := cloneUser(user)
	stored.ID = "user_" + strconv.Itoa(r.seq)
	r.users[stored.ID] = stored
	return cloneUser(stored), true, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.updates++
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type stubThrottle struct {
	failures map[string]int
	resets   []string
}

func newStubThrottle() *stubThrottle {
	return &stubThrottle{failures: make(map[string]int)}
}

func (t *stubThrottle) Failures(_ context.Context, email string) (int, error) {
	return t.failures[email], nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, email string, _ time.Duration) (int, error) {
	t.failures[email]++
	return t.failures[email], nil
}

func (t *stubThrottle) Reset(_ context.Context, email string) error {
	delete(t.failures, email)
	t.resets = append(t.resets, email)
	return nil
}

type stubRecorder struct {
	events []domain.AuthEvent
}

func (r *stubRecorder) Record(e domain.AuthEvent) {
	r.events = append(r.events, e)
}

func (r *stubRecorder) types() []domain.AuthEventType {
	out := make([]domain.AuthEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type stubAvatarStore struct {
	url string
	err error
}

func (s *stubAvatarStore) Upload(_ context.Context, _ ports.AvatarUpload) (string, error) {
	return s.url, s.err
}

type stubEventRepo struct {
	insertErr error
	inserted  []*domain.AuthEvent
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.AuthEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}
