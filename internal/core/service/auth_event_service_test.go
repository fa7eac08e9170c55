package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/identity/internal/core/domain"
)

func TestAuthEventService_Process(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewAuthEventService(repo, zerolog.Nop())

	err := svc.Process(context.Background(), domain.AuthEvent{Type: domain.EventLogin, Email: "a@example.com", Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one inserted event, got %d", len(repo.inserted))
	}
}

func TestAuthEventService_RejectsIncomplete(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewAuthEventService(repo, zerolog.Nop())

	if err := svc.Process(context.Background(), domain.AuthEvent{Email: "a@example.com"}); !errors.Is(err, errIncompleteEvent) {
		t.Fatalf("expected errIncompleteEvent, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("nothing must be inserted")
	}
}

func TestAuthEventService_InsertError(t *testing.T) {
	repo := &stubEventRepo{insertErr: errors.New("boom")}
	svc := NewAuthEventService(repo, zerolog.Nop())

	if err := svc.Process(context.Background(), domain.AuthEvent{Type: domain.EventLogin, Timestamp: time.Now()}); err == nil {
		t.Fatalf("expected error")
	}
}
