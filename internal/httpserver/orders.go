package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-api/internal/domain"
	"storefront-api/internal/repository/order"
)

// listOrdersHandler returns the caller's own orders: by user id once logged
// in, otherwise by session id.
func listOrdersHandler(orders OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		var (
			result []domain.Order
			err    error
		)
		if sess.UserID != nil {
			result, err = orders.ListByUser(c.Request.Context(), *sess.UserID)
		} else {
			result, err = orders.ListBySession(c.Request.Context(), sess.ID)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		if result == nil {
			result = []domain.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": result, "count": len(result)})
	}
}

func getOrderHandler(orders OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if uuid.Validate(id) != nil {
			respondError(c, domain.NotFoundError("order_not_found", "no such order"))
			return
		}
		o, err := orders.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		// An order is visible only to the session or shopper that placed it.
		sess := currentSession(c)
		owned := o.SessionID == sess.ID
		if !owned && sess.UserID != nil && o.UserID != nil {
			owned = *o.UserID == *sess.UserID
		}
		if !owned {
			respondError(c, domain.NotFoundError("order_not_found", "no such order"))
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func adminListOrdersHandler(orders OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		offset, _ := strconv.Atoi(c.Query("offset"))
		result, err := orders.List(c.Request.Context(), order.ListFilter{Limit: limit, Offset: offset})
		if err != nil {
			respondError(c, err)
			return
		}
		if result == nil {
			result = []domain.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": result, "count": len(result)})
	}
}
