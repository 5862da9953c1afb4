package repository

import (
	"context"
	"database/sql"
	"fmt"

	"boilermon/internal/models"
)

type SensorSQLite struct {
	db *sql.DB
}

func NewSensorSQLite(db *sql.DB) *SensorSQLite {
	return &SensorSQLite{db: db}
}

const selectSensorsSQL = `
	SELECT id, site_id, sensor_id, sensor_type, unit, min_value, max_value, is_active
	FROM sensors WHERE site_id = ? AND is_active = 1
	ORDER BY sensor_type, sensor_id
`

// ListBySite returns the active sensor descriptors registered for a site.
// Descriptors are advisory: ingestion accepts readings for sensor types
// that have no descriptor at all.
func (r *SensorSQLite) ListBySite(ctx context.Context, siteID string) ([]models.SensorDescriptor, error) {
	rows, err := r.db.QueryContext(ctx, selectSensorsSQL, siteID)
	if err != nil {
		return nil, fmt.Errorf("list sensors for %q: %w", siteID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.SensorDescriptor
	for rows.Next() {
		var (
			d        models.SensorDescriptor
			min, max sql.NullFloat64
		)
		if err := rows.Scan(
			&d.ID,
			&d.SiteID,
			&d.SensorID,
			&d.Type,
			&d.Unit,
			&min,
			&max,
			&d.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan sensor row: %w", err)
		}
		if min.Valid {
			v := min.Float64
			d.MinValue = &v
		}
		if max.Valid {
			v := max.Float64
			d.MaxValue = &v
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sensor rows: %w", err)
	}
	return out, nil
}
