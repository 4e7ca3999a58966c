package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
	"storefront-api/internal/service/stock"
)

type validateStockRequest struct {
	Items []stock.LineRequest `json:"items"`
}

func validateStockHandler(stockSvc StockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in validateStockRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, domain.Validation("invalid_body", "request body is not valid JSON"))
			return
		}
		if len(in.Items) == 0 {
			respondError(c, domain.Validation("items_required", "at least one item is required"))
			return
		}
		result, err := stockSvc.Validate(c.Request.Context(), in.Items)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
