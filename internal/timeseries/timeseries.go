package timeseries

import (
	"context"
	"errors"

	"boilermon/internal/models"
)

// ErrNoData is returned by LatestBySite when the store holds nothing
// recent for the site.
var ErrNoData = errors.New("timeseries: no data for site")

// Store is the narrow surface of the durable time-series engine. The
// engine itself is external; ingestion only appends, dashboards only
// query it as a cache-miss fallback.
type Store interface {
	// Append durably records one reading. Failures are soft for the
	// ingestion path: logged, never fatal to the batch.
	Append(ctx context.Context, r models.Reading) error
	// LatestBySite reconstructs a snapshot from the most recent stored
	// value of each sensor of the site.
	LatestBySite(ctx context.Context, siteID string) (models.SiteSnapshot, error)
	Close()
}

// Noop satisfies Store when no time-series backend is configured.
// Appends succeed silently; reads always miss.
type Noop struct{}

func (Noop) Append(ctx context.Context, r models.Reading) error { return nil }

func (Noop) LatestBySite(ctx context.Context, siteID string) (models.SiteSnapshot, error) {
	return models.SiteSnapshot{}, ErrNoData
}

func (Noop) Close() {}
