package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/bmi-check/internal/auth"
	"github.com/example/bmi-check/internal/logging"
	"github.com/example/bmi-check/internal/uploads"
	"github.com/example/bmi-check/internal/usecase"
)

func (h *handler) apiPredict(c *gin.Context) {
	userID, ok := auth.GetUserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	if h.tooLarge(c) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
		return
	}

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "front_view and side_view files are required"})
		return
	}

	if fieldErrors := extensionErrors(form.FrontView, form.SideView); len(fieldErrors) > 0 {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": imagesOnly, "fields": fieldErrors})
		return
	}

	front, side, err := readPair(form.FrontView, form.SideView)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read uploaded images"})
		return
	}

	prediction, err := h.svc.Predict(c.Request.Context(), userID, front, side)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrNoFeatures) || errors.Is(err, uploads.ErrInvalidExtension) {
			status = http.StatusUnprocessableEntity
		}
		h.logger.Error("api prediction failed", zap.Error(err), zap.String("user_id", userID))
		c.JSON(status, gin.H{"error": logging.Cause(err).Error()})
		return
	}

	c.JSON(http.StatusOK, prediction)
}

func (h *handler) apiResult(c *gin.Context) {
	userID, ok := auth.GetUserID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	requestID := c.Param("id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	prediction, err := h.svc.GetResult(c.Request.Context(), userID, requestID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, prediction)
	case errors.Is(err, usecase.ErrPending):
		c.JSON(http.StatusAccepted, gin.H{"request_id": requestID, "status": "processing"})
	case errors.Is(err, usecase.ErrFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"request_id": requestID, "status": "failed"})
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
	default:
		h.logger.Error("result lookup failed", zap.Error(err), zap.String("request_id", requestID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "result lookup failed"})
	}
}

func (h *handler) apiMetrics(c *gin.Context) {
	summary, err := h.svc.GetMetricsSummary(c.Request.Context())
	if err != nil {
		h.logger.Error("metrics summary failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "metrics unavailable"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
