package service

import (
	"context"
	"time"

	"boilermon/internal/alerts"
	"boilermon/internal/cache"
	"boilermon/internal/logger"
	"boilermon/internal/models"
	"boilermon/internal/repository"
	"boilermon/internal/timeseries"
)

// Validator checks a raw ingestion payload against the site registry and
// the per-reading rules before any write happens.
type Validator interface {
	Validate(ctx context.Context, payload []byte) (models.ValidatedBatch, error)
}

// Ingestor is the dual-write coordinator: durable append plus cache
// upsert per reading, snapshot merge, alert evaluation, and one summary
// row in the ingestion log.
type Ingestor interface {
	Ingest(ctx context.Context, batch models.ValidatedBatch) (models.IngestResult, error)
}

// Snapshots maintains and serves the per-site aggregated view.
type Snapshots interface {
	UpdateSnapshot(ctx context.Context, siteID, sensorType string, value float64, ts time.Time) error
	ReadSnapshot(ctx context.Context, siteID string) (models.SiteSnapshot, bool, error)
}

// Evaluator applies threshold rules to one reading and enqueues the
// resulting alert events.
type Evaluator interface {
	Evaluate(ctx context.Context, r models.Reading) ([]models.AlertEvent, error)
	EvaluateAndEnqueue(ctx context.Context, r models.Reading)
}

// Sensors serves descriptors merged with the latest cached readings.
type Sensors interface {
	ListWithLatest(ctx context.Context, siteID string) ([]models.SensorStatus, error)
}

// Stats aggregates ingestion outcomes and cache diagnostics.
type Stats interface {
	Overview(ctx context.Context) (StatsOverview, error)
}

// Service aggregates all sub-services.
type Service struct {
	Validator
	Ingestor
	Snapshots
	Evaluator
	Sensors
	Stats
}

// NewService wires repositories, the cache store, the time-series store
// and the alert queue into concrete services. All backends are built
// once at startup and injected; no component opens its own connections.
func NewService(
	repos *repository.Repository,
	store cache.Store,
	ts timeseries.Store,
	queue *alerts.Queue,
	log *logger.Logger,
) *Service {
	snapshots := NewSnapshotService(store, ts, log)
	evaluator := NewEvaluatorService(repos.Rules, queue, log)
	return &Service{
		Validator: NewValidationService(repos.Sites),
		Ingestor:  NewIngestService(ts, store, snapshots, evaluator, repos.IngestionLog, log),
		Snapshots: snapshots,
		Evaluator: evaluator,
		Sensors:   NewSensorService(repos.Sensors, store, log),
		Stats:     NewStatsService(repos.IngestionLog, store),
	}
}
