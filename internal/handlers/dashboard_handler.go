package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetDashboardStats(c *gin.Context) {
	stats, err := h.Dashboard.GetDashboardStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "degraded",
			"details": gin.H{"mongodb": "unavailable"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"details": gin.H{"mongodb": "available"},
	})
}
