package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boilermon/internal/models"
	"boilermon/internal/repository"
)

// ErrMalformedPayload marks a request body that cannot be parsed into
// the expected ingestion shape. Maps to HTTP 400.
var ErrMalformedPayload = errors.New("invalid JSON payload")

// UnknownSiteError marks a payload referencing a site that is not
// provisioned (or not active). Maps to HTTP 404.
type UnknownSiteError struct {
	SiteID string
}

func (e *UnknownSiteError) Error() string {
	return fmt.Sprintf("boiler site %s not found", e.SiteID)
}

// ingestPayload is the wire shape of one telemetry batch. Reading values
// arrive as untyped JSON so a single non-numeric entry drops that entry
// instead of failing the whole batch.
type ingestPayload struct {
	SiteID    string       `json:"site_id"`
	Timestamp string       `json:"timestamp"`
	Readings  []rawReading `json:"readings"`
}

type rawReading struct {
	SensorType string `json:"sensor_type"`
	Value      any    `json:"value"`
}

type ValidationService struct {
	sites repository.SiteRepo
}

func NewValidationService(sites repository.SiteRepo) *ValidationService {
	return &ValidationService{sites: sites}
}

// Validate parses and checks a raw payload. It is pure: no writes happen
// here, so a rejected request leaves no trace in any store.
//
// Batch-level failures: unparseable body (ErrMalformedPayload), missing
// or unknown site (UnknownSiteError). Per-reading failures are silent:
// entries without a sensor type or without a numeric value are dropped
// and counted. Sensor descriptors are advisory, so readings for
// unregistered sensor types pass through untouched.
func (s *ValidationService) Validate(ctx context.Context, payload []byte) (models.ValidatedBatch, error) {
	var req ingestPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return models.ValidatedBatch{}, ErrMalformedPayload
	}
	if req.SiteID == "" {
		return models.ValidatedBatch{}, ErrMalformedPayload
	}

	site, err := s.sites.GetBySiteID(ctx, req.SiteID)
	if err != nil {
		if errors.Is(err, repository.ErrSiteNotFound) {
			return models.ValidatedBatch{}, &UnknownSiteError{SiteID: req.SiteID}
		}
		return models.ValidatedBatch{}, fmt.Errorf("look up site %q: %w", req.SiteID, err)
	}
	if !site.IsActive {
		return models.ValidatedBatch{}, &UnknownSiteError{SiteID: req.SiteID}
	}

	ts := parseTimestamp(req.Timestamp)

	batch := models.ValidatedBatch{SiteID: req.SiteID}
	for _, r := range req.Readings {
		value, ok := numericValue(r.Value)
		if r.SensorType == "" || !ok {
			batch.Dropped++
			continue
		}
		batch.Readings = append(batch.Readings, models.Reading{
			SiteID:     req.SiteID,
			SensorType: r.SensorType,
			Value:      value,
			Timestamp:  ts,
		})
	}
	return batch, nil
}

// parseTimestamp accepts RFC3339 and falls back to ingestion time.
func parseTimestamp(s string) time.Time {
	if s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// numericValue accepts JSON numbers only. Strings, booleans, nulls and
// nested structures are dropped by the caller.
func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
