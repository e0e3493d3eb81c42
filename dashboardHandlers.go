package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/brightpath/adjustments_backend/middlewares"
	"github.com/brightpath/adjustments_backend/models"
	"github.com/gin-gonic/gin"
)

func dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		listing, err := models.ListAdjustments(ctx, middlewares.CtxValue(ctx), c.Query("center"))
		if err != nil {
			writeError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, listing)
	}
}

func childrenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		center := c.Query("center")
		if center == "" {
			center = c.Query("centre")
		}
		ctx := c.Request.Context()
		children, err := models.ListChildren(ctx, middlewares.CtxValue(ctx), center)
		if err != nil {
			writeError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, children)
	}
}

func childDetailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		details, err := models.GetChildDetails(ctx, middlewares.CtxValue(ctx), c.Query("centre"), c.Query("child"))
		if err != nil {
			writeError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, details)
	}
}

func exportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "export")
		defer span.End()

		file, err := models.ExportAdjustments(ctx, middlewares.CtxValue(ctx), c.Query("center"), time.Now())
		if err != nil {
			span.RecordError(err)
			writeError(c, err, "")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
		c.Data(http.StatusOK, file.ContentType, file.Content)
	}
}
