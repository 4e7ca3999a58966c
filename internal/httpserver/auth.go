package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
	"storefront-api/internal/service/shopper"
)

func registerHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in shopper.RegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, domain.Validation("invalid_body", "request body is not valid JSON"))
			return
		}
		created, err := deps.Shoppers.Register(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"shopper": created})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginHandler verifies credentials and then binds the anonymous session to
// the shopper: the session and cart get the user id, and the session
// wishlist merges into the user wishlist.
func loginHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in loginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, domain.Validation("invalid_body", "request body is not valid JSON"))
			return
		}
		found, err := deps.Shoppers.Login(c.Request.Context(), in.Email, in.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		sess := currentSession(c)
		ctx := c.Request.Context()
		if err := deps.Sessions.AttachUser(ctx, sess.ID, found.ID); err != nil {
			respondError(c, err)
			return
		}
		// A shopper with no cart yet has nothing to attach.
		if err := deps.Carts.AttachUser(ctx, sess.ID, found.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			respondError(c, err)
			return
		}
		if err := deps.Wishlists.MergeOnLogin(ctx, sess.ID, found.ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"shopper": found})
	}
}
