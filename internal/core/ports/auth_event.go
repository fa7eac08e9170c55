package ports

import (
	"context"

	"github.com/storefront/identity/internal/core/domain"
)

// AuthEventRepository persists the auth audit trail.
type AuthEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuthEventRecorder accepts audit events without blocking the request path.
type AuthEventRecorder interface {
	Record(event domain.AuthEvent)
}

// AuthEventService processes a single dequeued audit event.
type AuthEventService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}
