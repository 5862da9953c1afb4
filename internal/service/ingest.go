package service

import (
	"context"
	"encoding/json"
	"time"

	"boilermon/internal/cache"
	"boilermon/internal/logger"
	"boilermon/internal/models"
	"boilermon/internal/repository"
	"boilermon/internal/timeseries"
)

// cacheWriteTimeout caps each cache write so a slow cache cannot become
// a latency bottleneck for the ingestion path.
const cacheWriteTimeout = 100 * time.Millisecond

// IngestService coordinates the dual write. There is no transaction
// across the two stores: a failed durable append never blocks the cache
// path and vice versa (availability over cross-store consistency).
type IngestService struct {
	ts        timeseries.Store
	cache     cache.Store
	snapshots Snapshots
	evaluator Evaluator
	logRepo   repository.IngestionLogRepo
	log       *logger.Logger
}

func NewIngestService(
	ts timeseries.Store,
	store cache.Store,
	snapshots Snapshots,
	evaluator Evaluator,
	logRepo repository.IngestionLogRepo,
	log *logger.Logger,
) *IngestService {
	return &IngestService{
		ts:        ts,
		cache:     store,
		snapshots: snapshots,
		evaluator: evaluator,
		logRepo:   logRepo,
		log:       log,
	}
}

// Ingest processes every reading of a validated batch. A reading counts
// as processed when either write succeeds, and as cached only when the
// cache write succeeds. Per-reading failures are logged and never abort
// the rest of the batch.
func (s *IngestService) Ingest(ctx context.Context, batch models.ValidatedBatch) (models.IngestResult, error) {
	result := models.IngestResult{SiteID: batch.SiteID, Dropped: batch.Dropped}

	for _, r := range batch.Readings {
		durableOK := s.appendDurable(ctx, r)
		cachedOK := s.writeCache(ctx, r)

		if durableOK || cachedOK {
			result.Processed++
		}
		if cachedOK {
			result.Cached++
			if err := s.snapshots.UpdateSnapshot(ctx, r.SiteID, r.SensorType, r.Value, r.Timestamp); err != nil {
				s.log.Errorw("ingest_snapshot_update_failed",
					"err", err, "site_id", r.SiteID, "sensor_type", r.SensorType)
			}
		}

		// Fire-and-forget: evaluation enqueues and returns, it never
		// blocks ingestion on the consumer.
		s.evaluator.EvaluateAndEnqueue(ctx, r)
	}

	result.Status = batchStatus(result)
	s.logOutcome(ctx, result)
	return result, nil
}

func (s *IngestService) appendDurable(ctx context.Context, r models.Reading) bool {
	if err := s.ts.Append(ctx, r); err != nil {
		// Soft failure: durability is best-effort given the real-time
		// priority of this path.
		s.log.Errorw("ingest_durable_write_failed",
			"err", err, "site_id", r.SiteID, "sensor_type", r.SensorType)
		return false
	}
	return true
}

func (s *IngestService) writeCache(ctx context.Context, r models.Reading) bool {
	entry := models.CachedReading{
		Value:      r.Value,
		Timestamp:  r.Timestamp,
		SiteID:     r.SiteID,
		SensorType: r.SensorType,
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		s.log.Errorw("ingest_cache_marshal_failed", "err", err, "site_id", r.SiteID)
		return false
	}

	wctx, cancel := context.WithTimeout(ctx, cacheWriteTimeout)
	defer cancel()

	key := cache.LatestKey(r.SiteID, r.SensorType)
	if err := s.cache.SetEX(wctx, key, string(payload), cache.LatestTTL); err != nil {
		s.log.Errorw("ingest_cache_write_failed",
			"err", err, "key", key)
		return false
	}
	return true
}

// batchStatus derives the summary status: no processed readings is an
// error; any drop or cache undercount makes it partial.
func batchStatus(r models.IngestResult) string {
	switch {
	case r.Processed == 0:
		return models.IngestError
	case r.Dropped > 0 || r.Cached < r.Processed:
		return models.IngestPartial
	default:
		return models.IngestSuccess
	}
}

func (s *IngestService) logOutcome(ctx context.Context, r models.IngestResult) {
	entry := models.IngestionLog{
		Timestamp:    time.Now().UTC(),
		SiteID:       r.SiteID,
		RecordsCount: r.Processed,
		Status:       r.Status,
	}
	if err := s.logRepo.Append(ctx, entry); err != nil {
		s.log.Errorw("ingest_log_append_failed", "err", err, "site_id", r.SiteID)
	}
}
