// Package card integrates the hosted card checkout provider (Stripe).
package card

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v80"
	checkoutsession "github.com/stripe/stripe-go/v80/checkout/session"

	"storefront-api/internal/payment"
)

type Provider struct {
	publicBaseURL string
}

// New configures the Stripe client with the account secret key. The key is
// process-global in the Stripe SDK, so New is called once at startup.
func New(secretKey, publicBaseURL string) *Provider {
	stripe.Key = secretKey
	return &Provider{publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (p *Provider) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.SessionResult, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		name := item.Name
		if item.VariantLabel != "" {
			name = fmt.Sprintf("%s (%s)", item.Name, item.VariantLabel)
		}
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(name),
		}
		if item.Image != "" {
			productData.Images = stripe.StringSlice([]string{item.Image})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(strings.ToLower(req.Currency)),
				UnitAmount:  stripe.Int64(item.UnitPriceCents),
				ProductData: productData,
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(p.publicBaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(p.publicBaseURL + "/checkout/cancelled"),
	}
	if req.Billing != nil && req.Billing.Email != "" {
		params.CustomerEmail = stripe.String(req.Billing.Email)
	}
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("session_id", req.SessionID)

	sess, err := checkoutsession.New(params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, &payment.RejectionError{Reason: stripeErr.Msg}
		}
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}
	return &payment.SessionResult{
		ProviderSessionID: sess.ID,
		RedirectURL:       sess.URL,
	}, nil
}
