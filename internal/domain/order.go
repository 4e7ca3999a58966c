package domain

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
	OrderStatusFailed    = "failed"
	OrderStatusCompleted = "completed"
)

const (
	ProviderCard        = "card"
	ProviderInstallment = "installment"
)

// OrderItem is a frozen copy of a cart line at order-creation time, so later
// catalog edits cannot alter historical orders.
type OrderItem struct {
	ProductID              string   `json:"productId"`
	Name                   string   `json:"name"`
	Image                  string   `json:"image,omitempty"`
	VariantItemIDs         []string `json:"selectedVariantItemIds,omitempty"`
	VariantLabel           string   `json:"variantLabel,omitempty"`
	Quantity               int      `json:"quantity"`
	UnitPriceCents         int64    `json:"unitPriceCents"`
	InstallationOption     string   `json:"installationOption"`
	InstallationLocationID *string  `json:"installationLocationId,omitempty"`
}

// Order is immutable after creation except for its status, which moves
// one-directionally out of pending via provider webhooks.
type Order struct {
	ID                string          `json:"id"`
	SessionID         string          `json:"sessionId"`
	UserID            *string         `json:"userId,omitempty"`
	Provider          string          `json:"paymentProvider"`
	ProviderSessionID string          `json:"providerSessionId,omitempty"`
	Items             []OrderItem     `json:"items"`
	TotalCents        int64           `json:"totalCents"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	Billing           *BillingDetails `json:"billingDetails,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}
