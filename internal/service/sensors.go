package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"boilermon/internal/cache"
	"boilermon/internal/logger"
	"boilermon/internal/models"
	"boilermon/internal/repository"
)

// Data sources reported per sensor by the sensors endpoint.
const (
	sourceCache  = "cache"
	sourceNoData = "no_recent_data"
)

// SensorService merges registered descriptors with the latest cached
// reading per sensor.
type SensorService struct {
	sensors repository.SensorRepo
	cache   cache.Store
	log     *logger.Logger
}

func NewSensorService(sensors repository.SensorRepo, store cache.Store, log *logger.Logger) *SensorService {
	return &SensorService{sensors: sensors, cache: store, log: log}
}

// ListWithLatest returns every active descriptor of the site, each
// annotated with the latest cached value if one is still live. Values
// outside the descriptor's plausible [min, max] range are flagged but
// still reported; the range never gates anything.
func (s *SensorService) ListWithLatest(ctx context.Context, siteID string) ([]models.SensorStatus, error) {
	descriptors, err := s.sensors.ListBySite(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("list sensors for %q: %w", siteID, err)
	}

	out := make([]models.SensorStatus, 0, len(descriptors))
	for _, d := range descriptors {
		st := models.SensorStatus{SensorDescriptor: d, DataSource: sourceNoData}

		raw, err := s.cache.Get(ctx, cache.LatestKey(siteID, d.Type))
		if err != nil {
			if !errors.Is(err, cache.ErrMiss) {
				s.log.Errorw("sensor_cache_read_failed", "err", err, "site_id", siteID, "sensor_type", d.Type)
			}
			out = append(out, st)
			continue
		}

		var entry models.CachedReading
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			s.log.Errorw("sensor_cache_corrupt", "site_id", siteID, "sensor_type", d.Type)
			out = append(out, st)
			continue
		}

		v := entry.Value
		ts := entry.Timestamp
		st.LatestValue = &v
		st.ReadAt = &ts
		st.DataSource = sourceCache
		st.OutOfRange = outOfRange(d, v)
		out = append(out, st)
	}
	return out, nil
}

func outOfRange(d models.SensorDescriptor, value float64) bool {
	if d.MinValue != nil && value < *d.MinValue {
		return true
	}
	if d.MaxValue != nil && value > *d.MaxValue {
		return true
	}
	return false
}
