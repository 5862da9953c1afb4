package models

import "time"

// Reading is one validated telemetry sample. It is not persisted as an
// entity of its own; only the latest value per (site, sensor) survives
// in the cache, while every sample is appended to the time-series store.
type Reading struct {
	SiteID     string    `json:"site_id"`
	SensorType string    `json:"sensor_type"`
	Value      float64   `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

// CachedReading is the cache record behind latest:{site_id}:{sensor_type}.
type CachedReading struct {
	Value      float64   `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
	SiteID     string    `json:"site_id"`
	SensorType string    `json:"sensor_type"`
}

// Site status values as recomputed by the snapshot aggregator.
const (
	StatusOnline   = "online"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// SensorValue is one entry of a snapshot's sensor map.
type SensorValue struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// SiteSnapshot is the aggregated per-site view behind dashboard:{site_id}.
// It is built incrementally: each reading merges into the existing entry.
type SiteSnapshot struct {
	SiteID      string                 `json:"site_id"`
	LastUpdated time.Time              `json:"last_updated"`
	Status      string                 `json:"status"`
	Sensors     map[string]SensorValue `json:"sensors"`
}

// ValidatedBatch is the validator's output: readings that passed the
// per-entry checks plus the count of silently dropped entries.
type ValidatedBatch struct {
	SiteID   string
	Readings []Reading
	Dropped  int
}

// Ingestion batch outcome statuses, mirrored into the ingestion log.
const (
	IngestSuccess = "success"
	IngestError   = "error"
	IngestPartial = "partial"
)

// IngestResult summarizes one batch: Processed counts readings where at
// least one backend write succeeded, Cached only successful cache writes.
type IngestResult struct {
	SiteID    string `json:"site_id"`
	Processed int    `json:"processed_records"`
	Cached    int    `json:"cached_records"`
	Dropped   int    `json:"-"`
	Status    string `json:"-"`
}
