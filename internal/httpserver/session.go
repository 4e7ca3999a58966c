package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
	"storefront-api/internal/service/session"
)

const (
	sessionCookieName = "storefront_session"
	sessionCtxKey     = "storefront.session"
)

// sessionMiddleware resolves (or mints) the caller's session from the signed
// cookie and re-issues the cookie with the slid expiry. Handlers read the
// session via currentSession.
func sessionMiddleware(sessions SessionService, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(sessionCookieName)
		clientHash := session.HashClient(c.Request.UserAgent(), c.ClientIP())

		result, err := sessions.Ensure(c.Request.Context(), token, clientHash)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		setSessionCookie(c, result.Token, cookieSecure)
		c.Set(sessionCtxKey, result.Session)
		c.Next()
	}
}

func currentSession(c *gin.Context) *domain.Session {
	v, ok := c.Get(sessionCtxKey)
	if !ok {
		return nil
	}
	return v.(*domain.Session)
}

func setSessionCookie(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, int(session.TTL.Seconds()), "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", secure, true)
}

type sessionResponse struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	UserID     *string `json:"userId,omitempty"`
	ExpiresAt  string  `json:"expiresAt"`
	Registered bool    `json:"registered"`
}

// getSessionHandler reports the caller's session without minting one. A
// dead or forged cookie is cleared so the next request starts clean.
func getSessionHandler(sessions SessionService, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(sessionCookieName)
		sess, clearCookie, err := sessions.Get(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}
		if sess == nil {
			if clearCookie {
				clearSessionCookie(c, cookieSecure)
			}
			respondError(c, domain.NotFoundError("session_not_found", "no active session"))
			return
		}
		c.JSON(http.StatusOK, sessionResponse{
			ID:         sess.ID,
			Status:     sess.Status,
			UserID:     sess.UserID,
			ExpiresAt:  sess.ExpiresAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			Registered: sess.UserID != nil,
		})
	}
}

func revokeSessionHandler(sessions SessionService, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if err := sessions.Revoke(c.Request.Context(), sess.ID); err != nil {
			respondError(c, err)
			return
		}
		clearSessionCookie(c, cookieSecure)
		c.JSON(http.StatusOK, gin.H{"status": "revoked"})
	}
}
