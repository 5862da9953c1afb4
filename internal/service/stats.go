package service

import (
	"context"
	"fmt"
	"time"

	"boilermon/internal/cache"
	"boilermon/internal/models"
	"boilermon/internal/repository"
)

// statsWindow is the rolling window the stats endpoint aggregates over.
const statsWindow = 24 * time.Hour

// StatsOverview combines ingestion outcomes with cache diagnostics.
type StatsOverview struct {
	Ingestion models.IngestionStats `json:"ingestion_24h"`
	Cache     cache.Stats           `json:"cache"`
}

type StatsService struct {
	logRepo repository.IngestionLogRepo
	cache   cache.Store
}

func NewStatsService(logRepo repository.IngestionLogRepo, store cache.Store) *StatsService {
	return &StatsService{logRepo: logRepo, cache: store}
}

// Overview aggregates the last 24h of ingestion log rows and the cache
// store's own introspection data.
func (s *StatsService) Overview(ctx context.Context) (StatsOverview, error) {
	since := time.Now().UTC().Add(-statsWindow)
	ingestion, err := s.logRepo.StatsSince(ctx, since)
	if err != nil {
		return StatsOverview{}, fmt.Errorf("ingestion stats: %w", err)
	}

	cacheStats, err := s.cache.Info(ctx)
	if err != nil {
		return StatsOverview{}, fmt.Errorf("cache stats: %w", err)
	}

	return StatsOverview{Ingestion: ingestion, Cache: cacheStats}, nil
}
