package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/storefront/identity/internal/core/domain"
	"github.com/storefront/identity/internal/core/ports"
)

var errIncompleteEvent = errors.New("auth event missing type or timestamp")

type authEventService struct {
	repo ports.AuthEventRepository
	log  zerolog.Logger
}

// NewAuthEventService returns an AuthEventService that writes the audit trail.
func NewAuthEventService(repo ports.AuthEventRepository, log zerolog.Logger) ports.AuthEventService {
	return &authEventService{repo: repo, log: log}
}

// Process validates and persists a single audit event.
func (s *authEventService) Process(ctx context.Context, event domain.AuthEvent) error {
	if event.Type == "" || event.Timestamp.IsZero() {
		return fmt.Errorf("process auth event: %w", errIncompleteEvent)
	}

	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("process auth event: insert: %w", err)
	}

	s.log.Debug().
		Str("type", string(event.Type)).
		Str("email", event.Email).
		Msg("auth event stored")
	return nil
}
