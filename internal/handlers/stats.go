package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "boilermon",
	})
}

// @Summary      Ingestion and cache statistics
// @Description  Success/error/partial ingestion counts over a rolling 24h window plus cache key-count and memory diagnostics.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/stats [get]
func (h *Handler) stats(c *gin.Context) {
	overview, err := h.services.Stats.Overview(c.Request.Context())
	if err != nil {
		h.log.Errorw("stats_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}
	c.JSON(http.StatusOK, overview)
}
