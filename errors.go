package main

import (
	"errors"
	"net/http"

	"github.com/brightpath/adjustments_backend/utils"
	"github.com/gin-gonic/gin"
)

// errorStatus maps a model error to its HTTP status.
func errorStatus(err error) int {
	var verr *utils.ValidationError
	switch {
	case errors.Is(err, utils.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, utils.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {ok:false, error}. notFound replaces the
// generic not-found text where the route has a better one.
func writeError(c *gin.Context, err error, notFound string) {
	status := errorStatus(err)
	message := err.Error()
	switch status {
	case http.StatusNotFound:
		if notFound != "" {
			message = notFound
		}
	case http.StatusUnauthorized:
		message = "Login required"
	case http.StatusForbidden:
		message = "Forbidden"
	case http.StatusInternalServerError:
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"ok": false, "error": message})
}
