package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"boilermon/internal/models"
)

type IngestionLogSQLite struct {
	db *sql.DB
}

func NewIngestionLogSQLite(db *sql.DB) *IngestionLogSQLite {
	return &IngestionLogSQLite{db: db}
}

const (
	insertIngestionLogSQL = `
		INSERT INTO ingestion_log (ts, site_id, records_count, status, error_message)
		VALUES (?, ?, ?, ?, ?)
	`

	selectIngestionStatsSQL = `
		SELECT status, COUNT(*), COALESCE(SUM(records_count), 0)
		FROM ingestion_log WHERE ts >= ?
		GROUP BY status
	`
)

// Append records one batch summary. Timestamps are persisted as UTC;
// a zero timestamp is replaced with now.
func (r *IngestionLogSQLite) Append(ctx context.Context, entry models.IngestionLog) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	var errMsg sql.NullString
	if entry.ErrorMessage != "" {
		errMsg = sql.NullString{String: entry.ErrorMessage, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, insertIngestionLogSQL,
		ts,
		entry.SiteID,
		entry.RecordsCount,
		entry.Status,
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("append ingestion log for %q: %w", entry.SiteID, err)
	}
	return nil
}

// StatsSince aggregates log rows at or after the given instant.
func (r *IngestionLogSQLite) StatsSince(ctx context.Context, since time.Time) (models.IngestionStats, error) {
	rows, err := r.db.QueryContext(ctx, selectIngestionStatsSQL, since.UTC())
	if err != nil {
		return models.IngestionStats{}, fmt.Errorf("query ingestion stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats models.IngestionStats
	for rows.Next() {
		var (
			status  string
			count   int
			records int
		)
		if err := rows.Scan(&status, &count, &records); err != nil {
			return models.IngestionStats{}, fmt.Errorf("scan stats row: %w", err)
		}
		switch status {
		case models.IngestSuccess:
			stats.Success = count
		case models.IngestError:
			stats.Error = count
		case models.IngestPartial:
			stats.Partial = count
		}
		stats.TotalRecords += records
	}
	if err := rows.Err(); err != nil {
		return models.IngestionStats{}, fmt.Errorf("iterate stats rows: %w", err)
	}
	return stats, nil
}
