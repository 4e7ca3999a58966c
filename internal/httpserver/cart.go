package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
	"storefront-api/internal/service/cart"
)

func getCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := carts.Get(c.Request.Context(), currentSession(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func addCartItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cart.AddItemInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, domain.Validation("invalid_body", "request body is not valid JSON"))
			return
		}
		result, err := carts.AddItem(c.Request.Context(), currentSession(c).ID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// lineSelector identifies a cart line by product and normalized variant
// selection; quantity rides along for the update endpoint.
type lineSelector struct {
	ProductID      string   `json:"productId"`
	VariantItemIDs []string `json:"selectedVariantItemIds"`
	Quantity       int      `json:"quantity"`
}

func updateCartItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in lineSelector
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, domain.Validation("invalid_body", "request body is not valid JSON"))
			return
		}
		result, err := carts.UpdateQuantity(c.Request.Context(), currentSession(c).ID, in.ProductID, in.VariantItemIDs, in.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func removeCartItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in lineSelector
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, domain.Validation("invalid_body", "request body is not valid JSON"))
			return
		}
		result, err := carts.RemoveItem(c.Request.Context(), currentSession(c).ID, in.ProductID, in.VariantItemIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func clearCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := carts.Clear(c.Request.Context(), currentSession(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func getBillingHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		billing, err := carts.GetBilling(c.Request.Context(), currentSession(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"billingDetails": billing})
	}
}

func setBillingHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in domain.BillingDetails
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, domain.Validation("invalid_body", "request body is not valid JSON"))
			return
		}
		result, err := carts.SetBilling(c.Request.Context(), currentSession(c).ID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
