package main

import (
	"errors"
	"net/http"

	"github.com/brightpath/adjustments_backend/config"
	"github.com/brightpath/adjustments_backend/middlewares"
	"github.com/brightpath/adjustments_backend/models"
	"github.com/brightpath/adjustments_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type loginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type forgotRequest struct {
	Username    string `form:"username" json:"username"`
	NewPassword string `form:"new_password" json:"new_password"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "login")
		defer span.End()

		info, err := models.Login(ctx, req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrMissingCredentials):
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Please enter both username and password."})
			case errors.Is(err, utils.ErrInvalidCredentials):
				c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Invalid username or password."})
			default:
				writeError(c, err, "")
			}
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middlewares.SessionCookie, info.Token, int(utils.TokenLifespan().Seconds()), "/", "", config.CookieSecure(), true)
		config.GetLogger().WithFields(logrus.Fields{
			"field":    "loginHandler",
			"username": info.Username,
			"role":     info.Role,
		}).Info("login")
		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"username": info.Username,
			"role":     info.Role,
			"center":   info.Center,
		})
	}
}

func forgotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req forgotRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
			return
		}
		if err := models.ResetPassword(c.Request.Context(), req.Username, req.NewPassword); err != nil {
			writeError(c, err, "Username not found.")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Password reset successful. Please log in."})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := models.Logout(c.Request.Context(), middlewares.SessionToken(c)); err != nil {
			config.LogError(config.GetLogger(), "authHandlers.go", "logoutHandler", "revoke session", nil, err)
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", config.CookieSecure(), true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
