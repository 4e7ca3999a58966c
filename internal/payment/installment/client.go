// Package installment talks to the buy-now-pay-later provider over its
// JSON HTTP API.
package installment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-api/internal/payment"
)

const requestTimeout = 10 * time.Second

type Client struct {
	baseURL       string
	apiKey        string
	publicBaseURL string
	httpClient    *http.Client
}

// NewClient builds the provider client. publicBaseURL is the storefront's
// own origin; the provider's hosted page returns the shopper to it.
func NewClient(baseURL, apiKey, publicBaseURL string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		httpClient:    &http.Client{Timeout: requestTimeout},
	}
}

type availabilityRequest struct {
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

// AvailabilityResult reports whether the provider will finance the given
// total and under which plans.
type AvailabilityResult struct {
	Available bool     `json:"available"`
	Plans     []Plan   `json:"plans"`
	Reasons   []string `json:"reasons,omitempty"`
}

type Plan struct {
	ID                string `json:"id"`
	Installments      int    `json:"installments"`
	MonthlyCostCents  int64  `json:"monthlyCostCents"`
	TotalCostCents    int64  `json:"totalCostCents"`
	InterestRateBasis int    `json:"interestRateBasisPoints"`
}

// CheckAvailability asks the provider whether a purchase of the given total
// qualifies for installment financing.
func (c *Client) CheckAvailability(ctx context.Context, amountCents int64, currency string) (*AvailabilityResult, error) {
	var result AvailabilityResult
	if err := c.post(ctx, "/v1/availability", availabilityRequest{
		AmountCents: amountCents,
		Currency:    currency,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type sessionRequest struct {
	Reference   string            `json:"reference"`
	AmountCents int64             `json:"amountCents"`
	Currency    string            `json:"currency"`
	SuccessURL  string            `json:"successUrl"`
	CancelURL   string            `json:"cancelUrl"`
	FailureURL  string            `json:"failureUrl"`
	Items       []sessionItem     `json:"items"`
	Customer    *sessionCustomer  `json:"customer,omitempty"`
	Shipping    *sessionAddress   `json:"shipping,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type sessionItem struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type sessionCustomer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type sessionAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode,omitempty"`
}

type sessionResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirectUrl"`
	Reason      string `json:"reason,omitempty"`
}

// CreateSession opens a financing session. A well-formed response with
// status "rejected" is a provider decision, not a transport failure, and is
// returned as a RejectionError.
func (c *Client) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.SessionResult, error) {
	body := sessionRequest{
		Reference:   req.OrderID,
		AmountCents: req.TotalCents,
		Currency:    req.Currency,
		SuccessURL:  c.publicBaseURL + "/checkout/success",
		CancelURL:   c.publicBaseURL + "/checkout/cancelled",
		FailureURL:  c.publicBaseURL + "/checkout/failed",
		Metadata:    map[string]string{"sessionId": req.SessionID},
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, sessionItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	if req.Billing != nil {
		body.Customer = &sessionCustomer{
			FirstName: req.Billing.FirstName,
			LastName:  req.Billing.LastName,
			Email:     req.Billing.Email,
			Phone:     req.Billing.Phone,
		}
		body.Shipping = &sessionAddress{
			Address:    req.Billing.Address,
			City:       req.Billing.City,
			Country:    req.Billing.Country,
			PostalCode: req.Billing.PostalCode,
		}
	}

	var resp sessionResponse
	if err := c.post(ctx, "/v1/sessions", body, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "rejected" {
		reason := resp.Reason
		if reason == "" {
			reason = "financing declined"
		}
		return nil, &payment.RejectionError{Reason: reason}
	}
	return &payment.SessionResult{
		ProviderSessionID: resp.ID,
		RedirectURL:       resp.RedirectURL,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payloadBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("installment api %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("installment api %s: read response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("installment api %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("installment api %s: decode response: %w", path, err)
	}
	return nil
}
