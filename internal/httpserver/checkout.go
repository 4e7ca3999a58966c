package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
	"storefront-api/internal/service/checkout"
)

type beginCheckoutRequest struct {
	// Items switches to buy-now mode; empty means checkout of the stored
	// cart. Prices are never read from the request.
	Items   []checkout.BuyNowLine  `json:"items"`
	Billing *domain.BillingDetails `json:"billingDetails"`
}

func beginCheckoutHandler(checkoutSvc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// An empty body means "check out the stored cart as it stands".
		var in beginCheckoutRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&in); err != nil {
				respondError(c, domain.Validation("invalid_body", "request body is not valid JSON"))
				return
			}
		}
		result, err := checkoutSvc.Begin(c.Request.Context(), currentSession(c), checkout.BeginInput{
			Provider: c.Param("provider"),
			Lines:    in.Items,
			Billing:  in.Billing,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func installmentAvailabilityHandler(checkoutSvc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := checkoutSvc.CheckInstallmentAvailability(c.Request.Context(), currentSession(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
