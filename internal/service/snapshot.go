package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boilermon/internal/cache"
	"boilermon/internal/logger"
	"boilermon/internal/models"
	"boilermon/internal/timeseries"
)

// Status thresholds applied on each snapshot merge.
const (
	criticalPressure   = 20.0
	warningTemperature = 100.0
)

// SnapshotService maintains the per-site dashboard view in the cache.
//
// The read-modify-write below is not atomic: two sensors of one site
// arriving at the same instant can race and the whole entry is
// last-write-wins, not per-field. Accepted: the entry is rebuilt from
// fresh readings within one TTL window anyway.
type SnapshotService struct {
	cache cache.Store
	ts    timeseries.Store
	log   *logger.Logger
}

func NewSnapshotService(store cache.Store, ts timeseries.Store, log *logger.Logger) *SnapshotService {
	return &SnapshotService{cache: store, ts: ts, log: log}
}

// UpdateSnapshot merges one reading into the site's snapshot and
// recomputes the status from the incoming reading only. The last writer
// decides the status: a healthy reading for a different sensor does not
// clear a prior warning or critical state, and only a fresh in-range
// reading of the triggering sensor resets it.
func (s *SnapshotService) UpdateSnapshot(ctx context.Context, siteID, sensorType string, value float64, ts time.Time) error {
	snap := s.loadOrInit(ctx, siteID)

	now := time.Now().UTC()
	snap.Sensors[sensorType] = models.SensorValue{Value: value, Timestamp: ts}
	snap.LastUpdated = now
	snap.Status = nextStatus(snap.Status, sensorType, value)

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %q: %w", siteID, err)
	}
	if err := s.cache.SetEX(ctx, cache.DashboardKey(siteID), string(payload), cache.DashboardTTL); err != nil {
		return fmt.Errorf("write snapshot for %q: %w", siteID, err)
	}
	return nil
}

// ReadSnapshot is the dashboard read path. The bool result reports a
// cache hit; on a miss the time-series store is queried instead, so a
// dashboard always sees data when any exists.
func (s *SnapshotService) ReadSnapshot(ctx context.Context, siteID string) (models.SiteSnapshot, bool, error) {
	raw, err := s.cache.Get(ctx, cache.DashboardKey(siteID))
	if err == nil {
		var snap models.SiteSnapshot
		if uerr := json.Unmarshal([]byte(raw), &snap); uerr == nil {
			return snap, true, nil
		}
		s.log.Errorw("snapshot_cache_corrupt", "site_id", siteID)
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Errorw("snapshot_cache_read_failed", "err", err, "site_id", siteID)
	}

	snap, err := s.ts.LatestBySite(ctx, siteID)
	if err != nil {
		if errors.Is(err, timeseries.ErrNoData) {
			return models.SiteSnapshot{}, false, err
		}
		return models.SiteSnapshot{}, false, fmt.Errorf("snapshot fallback for %q: %w", siteID, err)
	}
	return snap, false, nil
}

func (s *SnapshotService) loadOrInit(ctx context.Context, siteID string) models.SiteSnapshot {
	raw, err := s.cache.Get(ctx, cache.DashboardKey(siteID))
	if err == nil {
		var snap models.SiteSnapshot
		if uerr := json.Unmarshal([]byte(raw), &snap); uerr == nil {
			if snap.Sensors == nil {
				snap.Sensors = make(map[string]models.SensorValue)
			}
			return snap
		}
	}
	return models.SiteSnapshot{
		SiteID:  siteID,
		Status:  models.StatusOnline,
		Sensors: make(map[string]models.SensorValue),
	}
}

// nextStatus implements the last-writer-decides rule: the incoming
// reading alone determines the status. A known limitation follows from
// this: a hot temperature reading downgrades a pressure-set critical to
// warning, because no other sensor's state is consulted.
func nextStatus(current, sensorType string, value float64) string {
	switch sensorType {
	case models.SensorPressure:
		if value > criticalPressure {
			return models.StatusCritical
		}
		if current == models.StatusCritical {
			// The triggering sensor came back in range.
			return models.StatusOnline
		}
	case models.SensorTemperature:
		if value > warningTemperature {
			return models.StatusWarning
		}
		if current == models.StatusWarning {
			return models.StatusOnline
		}
	}
	return current
}
