package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"boilermon/internal/service"
)

// User-facing error strings. Internal detail never leaks to the caller.
const (
	errInvalidJSON   = "Invalid JSON payload"
	errInternal      = "Internal server error"
	statusSuccessStr = "success"
)

// IngestRequest documents the ingestion payload for Swagger.
type IngestRequest struct {
	// External site identifier, e.g. "BLR001"
	SiteID string `json:"site_id" example:"BLR001"`
	// Optional RFC3339 producer timestamp; defaults to ingestion time
	Timestamp string `json:"timestamp,omitempty" example:"2026-03-01T12:00:00Z"`
	// Sensor samples; entries without a numeric value are dropped
	Readings []struct {
		SensorType string  `json:"sensor_type" example:"temperature"`
		Value      float64 `json:"value" example:"95.5"`
	} `json:"readings"`
}

// @Summary      Ingest telemetry batch
// @Description  Validates the batch, appends each reading to the time-series store and caches the latest value per sensor. The caller always learns processed vs. cached counts.
// @Tags         ingestion
// @Accept       json
// @Produce      json
// @Param        body  body      IngestRequest  true  "Telemetry batch"
// @Success      200   {object}  map[string]interface{}  "status, site_id, processed_records, cached_records"
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/ingest [post]
func (h *Handler) ingest(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidJSON})
		return
	}

	batch, err := h.services.Validator.Validate(ctx, payload)
	if err != nil {
		h.respondValidationError(c, err)
		return
	}

	result, err := h.services.Ingestor.Ingest(ctx, batch)
	if err != nil {
		h.log.Errorw("ingest_failed", "err", err, "site_id", batch.SiteID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            statusSuccessStr,
		"site_id":           result.SiteID,
		"processed_records": result.Processed,
		"cached_records":    result.Cached,
	})
}

// respondValidationError maps the validation taxonomy to HTTP codes:
// malformed payload 400, unknown site 404, anything else 500.
func (h *Handler) respondValidationError(c *gin.Context, err error) {
	var unknown *service.UnknownSiteError
	switch {
	case errors.As(err, &unknown):
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("Boiler site %s not found", unknown.SiteID),
		})
	case errors.Is(err, service.ErrMalformedPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidJSON})
	default:
		h.log.Errorw("ingest_validation_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
	}
}
