package order

import (
	"context"

	"storefront-api/internal/domain"
)

type ListFilter struct {
	Limit  int
	Offset int
}

type Repository interface {
	// Create persists a pending order before any provider call is made.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	// AttachProviderSession stores the provider's own session id, the key a
	// later webhook uses to find the order.
	AttachProviderSession(ctx context.Context, orderID, providerSessionID string) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByProviderSession(ctx context.Context, provider, providerSessionID string) (*domain.Order, error)
	// Transition moves the order found by provider session id from one of
	// fromStatuses into toStatus. It returns the order and whether the row
	// actually changed; a replayed webhook finds the order already moved and
	// reports changed=false without touching it.
	Transition(ctx context.Context, provider, providerSessionID, toStatus string, fromStatuses ...string) (*domain.Order, bool, error)
	// MarkFailed settles an order the provider declined before a provider
	// session id ever existed, so Transition has no key to find it by.
	MarkFailed(ctx context.Context, orderID string) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, f ListFilter) ([]domain.Order, error)
}
