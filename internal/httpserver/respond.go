package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
)

type errorResponse struct {
	Message string                 `json:"message"`
	Status  int                    `json:"statusCode"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// respondError is the single place a service error becomes an HTTP body.
// AppErrors keep their status and code; bare ErrNotFound maps to 404;
// everything else is an opaque 500.
func respondError(c *gin.Context, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, errorResponse{
			Message: appErr.Message,
			Status:  appErr.Status,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Message: "not found", Status: http.StatusNotFound})
		return
	}
	c.Error(err) // surfaces in the gin log line
	c.JSON(http.StatusInternalServerError, errorResponse{Message: "internal error", Status: http.StatusInternalServerError})
}
