package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
)

func getWishlistHandler(wishlists WishlistService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := wishlists.Get(c.Request.Context(), currentSession(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type toggleRequest struct {
	ProductID      string   `json:"productId"`
	VariantItemIDs []string `json:"selectedVariantItemIds"`
}

func toggleWishlistHandler(wishlists WishlistService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in toggleRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, domain.Validation("invalid_body", "request body is not valid JSON"))
			return
		}
		result, present, err := wishlists.Toggle(c.Request.Context(), currentSession(c).ID, in.ProductID, in.VariantItemIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"wishlist": result, "present": present})
	}
}

func clearWishlistHandler(wishlists WishlistService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := wishlists.Clear(c.Request.Context(), currentSession(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
