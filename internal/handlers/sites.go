package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"boilermon/internal/timeseries"
)

// @Summary      Real-time site snapshot
// @Description  Serves the aggregated snapshot from the cache; on a miss it falls back to the time-series store. cache_hit reports which path answered.
// @Tags         sites
// @Produce      json
// @Param        site_id  path  string  true  "Site identifier"  example(BLR001)
// @Success      200  {object}  map[string]interface{}  "snapshot, cache_hit"
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sites/{site_id}/realtime [get]
func (h *Handler) realtime(c *gin.Context) {
	ctx := c.Request.Context()
	siteID := c.Param("site_id")

	snap, hit, err := h.services.Snapshots.ReadSnapshot(ctx, siteID)
	if err != nil {
		if errors.Is(err, timeseries.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": fmt.Sprintf("No recent data for site %s", siteID),
			})
			return
		}
		h.log.Errorw("realtime_read_failed", "err", err, "site_id", siteID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"site_id":      snap.SiteID,
		"last_updated": snap.LastUpdated,
		"status":       snap.Status,
		"sensors":      snap.Sensors,
		"cache_hit":    hit,
	})
}

// @Summary      Site sensors with latest readings
// @Description  Registered sensor descriptors merged with the latest cached reading per sensor; latest_value is null with data_source "no_recent_data" when the cache holds nothing live.
// @Tags         sites
// @Produce      json
// @Param        site_id  path  string  true  "Site identifier"  example(BLR001)
// @Success      200  {object}  map[string]interface{}  "site_id, sensors"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sites/{site_id}/sensors [get]
func (h *Handler) sensors(c *gin.Context) {
	ctx := c.Request.Context()
	siteID := c.Param("site_id")

	sensors, err := h.services.Sensors.ListWithLatest(ctx, siteID)
	if err != nil {
		h.log.Errorw("sensors_read_failed", "err", err, "site_id", siteID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"site_id": siteID,
		"sensors": sensors,
	})
}
