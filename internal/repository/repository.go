package repository

import (
	"context"
	"database/sql"
	"time"

	"boilermon/internal/models"
	"boilermon/internal/repository/db"
)

// InitDB opens the SQLite database and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}

// SiteRepo reads the boiler site registry. Sites are provisioned by an
// external admin service; the core never writes them.
type SiteRepo interface {
	GetBySiteID(ctx context.Context, siteID string) (*models.BoilerSite, error)
}

// SensorRepo reads sensor descriptors for the per-site sensors endpoint.
type SensorRepo interface {
	ListBySite(ctx context.Context, siteID string) ([]models.SensorDescriptor, error)
}

// RuleRepo reads active alert rules for the evaluator.
type RuleRepo interface {
	ActiveForParameter(ctx context.Context, siteID, parameter string) ([]models.AlertRule, error)
}

// IngestionLogRepo appends batch summaries and aggregates them for stats.
type IngestionLogRepo interface {
	Append(ctx context.Context, entry models.IngestionLog) error
	StatsSince(ctx context.Context, since time.Time) (models.IngestionStats, error)
}

type Repository struct {
	Sites        SiteRepo
	Sensors      SensorRepo
	Rules        RuleRepo
	IngestionLog IngestionLogRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Sites:        NewSiteSQLite(db),
		Sensors:      NewSensorSQLite(db),
		Rules:        NewRuleSQLite(db),
		IngestionLog: NewIngestionLogSQLite(db),
	}
}
