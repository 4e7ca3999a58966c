package session

import (
	"context"
	"time"

	"storefront-api/internal/domain"
)

type Repository interface {
	// Put inserts or replaces the record under its id. Healing a stale
	// client token reuses the same id, so create and heal share this upsert.
	Put(ctx context.Context, s domain.Session) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Touch extends the sliding window and refreshes activity metadata.
	Touch(ctx context.Context, id string, expiresAt time.Time, clientHash string) (*domain.Session, error)
	SetStatus(ctx context.Context, id, status string) error
	AttachUser(ctx context.Context, id, userID string) error
}
