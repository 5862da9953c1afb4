package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"boilermon/internal/models"
)

// ErrSiteNotFound is returned when no boiler site matches the given id.
var ErrSiteNotFound = errors.New("boiler site not found")

type SiteSQLite struct {
	db *sql.DB
}

func NewSiteSQLite(db *sql.DB) *SiteSQLite {
	return &SiteSQLite{db: db}
}

const selectSiteSQL = `
	SELECT id, site_id, name, location, installed_at, is_active
	FROM boiler_sites WHERE site_id = ?
`

// GetBySiteID loads one site by its external identifier (e.g. "BLR001").
func (r *SiteSQLite) GetBySiteID(ctx context.Context, siteID string) (*models.BoilerSite, error) {
	row := r.db.QueryRowContext(ctx, selectSiteSQL, siteID)

	var s models.BoilerSite
	if err := row.Scan(
		&s.ID,
		&s.SiteID,
		&s.Name,
		&s.Location,
		&s.InstalledAt,
		&s.IsActive,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("load site %q: %w", siteID, err)
	}
	s.InstalledAt = s.InstalledAt.UTC()
	return &s, nil
}
