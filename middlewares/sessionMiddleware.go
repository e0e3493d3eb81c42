package middlewares

import (
	"errors"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/models"
	"github.com/brightpath/adjustments_backend/utils"
	"github.com/gin-gonic/gin"
)

const SessionCookie = "session"

// SessionToken reads the session cookie, falling back to the token header.
func SessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	return c.Request.Header.Get("token")
}

// SessionMiddleware puts the caller's principal in the request context when
// the token is good. Bad or revoked tokens leave the request anonymous;
// routes that need a session reject it in RequireSession.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			c.Next()
			return
		}
		principal, err := models.ValidateSession(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, utils.ErrUnauthenticated) {
				config.LogError(config.GetLogger(), "sessionMiddleware.go", "SessionMiddleware", "validate session", nil, err)
			}
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(models.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}
