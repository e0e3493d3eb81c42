package middlewares

import (
	"context"
	"net/http"

	"github.com/brightpath/adjustments_backend/models"
	"github.com/gin-gonic/gin"
)

// RequireSession rejects requests without a principal with 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := models.PrincipalFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Login required"})
			return
		}
		c.Next()
	}
}

// CtxValue returns the request principal, zero when anonymous.
func CtxValue(ctx context.Context) models.Principal {
	p, _ := models.PrincipalFromContext(ctx)
	return p
}
