package main

import (
	"net/http"

	"github.com/brightpath/adjustments_backend/middlewares"
	"github.com/brightpath/adjustments_backend/models"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type bulkApprovalRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

func getRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		adjustment, err := models.GetAdjustment(ctx, middlewares.CtxValue(ctx), c.Param("id"))
		if err != nil {
			writeError(c, err, "Record not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "record": adjustment.Record()})
	}
}

func addRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewAdjustment
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "records.add", trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		adjustment, err := models.CreateAdjustment(ctx, middlewares.CtxValue(ctx), &input)
		if err != nil {
			span.RecordError(err)
			writeError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "record": adjustment.Record()})
	}
}

func editRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewAdjustment
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "records.edit", trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		adjustment, err := models.UpdateAdjustment(ctx, middlewares.CtxValue(ctx), c.Param("id"), &input)
		if err != nil {
			span.RecordError(err)
			writeError(c, err, "Record not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "record": adjustment.Record()})
	}
}

func deleteRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := models.DeleteAdjustment(ctx, middlewares.CtxValue(ctx), c.Param("id")); err != nil {
			writeError(c, err, "Record not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func bulkApprovalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkApprovalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "records.bulk_approval", trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		updated, err := models.BulkUpdateApproval(ctx, middlewares.CtxValue(ctx), req.IDs, req.Status)
		if err != nil {
			span.RecordError(err)
			writeError(c, err, "No matching records")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "updated": updated})
	}
}
