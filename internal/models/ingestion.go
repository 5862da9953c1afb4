package models

import "time"

// IngestionLog is one durable summary row per ingested batch.
type IngestionLog struct {
	ID           int       `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	SiteID       string    `json:"site_id"`
	RecordsCount int       `json:"records_count"`
	Status       string    `json:"status"` // success | error | partial
	ErrorMessage string    `json:"error_message,omitempty"`
}

// IngestionStats aggregates log rows over a window (the stats endpoint
// uses a rolling 24h).
type IngestionStats struct {
	Success      int `json:"success"`
	Error        int `json:"error"`
	Partial      int `json:"partial"`
	TotalRecords int `json:"total_records"`
}
