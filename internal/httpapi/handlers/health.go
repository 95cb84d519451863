package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) Health(c *gin.Context) {
	if h.Cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ok":      false,
			"error":   "Database not configured",
			"details": "Missing database settings",
		})
		return
	}
	if err := h.Cache.Ping(c.Request.Context()); err != nil {
		h.Log.Error("database health check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":      false,
			"error":   "Database connection failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"db":        "up",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}
