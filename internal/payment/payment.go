// Package payment defines the contract between checkout orchestration and
// the concrete payment providers. Each provider turns a priced order into a
// hosted payment session the shopper is redirected to; the outcome arrives
// later on a webhook.
package payment

import (
	"context"
	"fmt"

	"storefront-api/internal/domain"
)

// SessionRequest carries everything a provider needs to open a payment
// session. Amounts are integer cents and were computed server-side.
type SessionRequest struct {
	OrderID    string
	SessionID  string
	Currency   string
	Items      []domain.OrderItem
	Billing    *domain.BillingDetails
	TotalCents int64
}

// SessionResult identifies the session at the provider and where to send
// the shopper next.
type SessionResult struct {
	ProviderSessionID string
	RedirectURL       string
}

// RejectionError means the provider evaluated the request and declined it,
// as opposed to a transport or server failure. Callers surface the reason
// to the shopper instead of retrying.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("payment provider rejected the request: %s", e.Reason)
}

type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*SessionResult, error)
}
