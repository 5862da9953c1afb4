package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"boilermon/internal/models"
	"boilermon/internal/repository"
)

// siteRepoStub satisfies repository.SiteRepo for validator tests.
type siteRepoStub struct {
	sites map[string]*models.BoilerSite
	err   error
}

func (s *siteRepoStub) GetBySiteID(ctx context.Context, siteID string) (*models.BoilerSite, error) {
	if s.err != nil {
		return nil, s.err
	}
	site, ok := s.sites[siteID]
	if !ok {
		return nil, repository.ErrSiteNotFound
	}
	return site, nil
}

func knownSites() *siteRepoStub {
	return &siteRepoStub{sites: map[string]*models.BoilerSite{
		"BLR001": {ID: 1, SiteID: "BLR001", Name: "Main Plant", IsActive: true},
		"BLR002": {ID: 2, SiteID: "BLR002", Name: "Retired Plant", IsActive: false},
	}}
}

func TestValidationService_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		payload    string
		assertFunc func(t *testing.T, got models.ValidatedBatch, err error)
	}{
		{
			name:    "valid batch with two readings",
			payload: `{"site_id":"BLR001","readings":[{"sensor_type":"temperature","value":95.5},{"sensor_type":"pressure","value":12.3}]}`,
			assertFunc: func(t *testing.T, got models.ValidatedBatch, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(got.Readings) != 2 || got.Dropped != 0 {
					t.Fatalf("want 2 readings 0 dropped, got %d/%d", len(got.Readings), got.Dropped)
				}
				if got.Readings[0].SensorType != "temperature" || got.Readings[0].Value != 95.5 {
					t.Errorf("first reading mangled: %+v", got.Readings[0])
				}
				if got.Readings[0].Timestamp.IsZero() {
					t.Errorf("timestamp must default to ingestion time")
				}
			},
		},
		{
			name:    "unparseable body is malformed",
			payload: `{"site_id":`,
			assertFunc: func(t *testing.T, got models.ValidatedBatch, err error) {
				if !errors.Is(err, ErrMalformedPayload) {
					t.Fatalf("want ErrMalformedPayload, got %v", err)
				}
			},
		},
		{
			name:    "missing site_id is malformed",
			payload: `{"readings":[{"sensor_type":"temperature","value":1}]}`,
			assertFunc: func(t *testing.T, got models.ValidatedBatch, err error) {
				if !errors.Is(err, ErrMalformedPayload) {
					t.Fatalf("want ErrMalformedPayload, got %v", err)
				}
			},
		},
		{
			name:    "unknown site",
			payload: `{"site_id":"BLR999","readings":[{"sensor_type":"temperature","value":1}]}`,
			assertFunc: func(t *testing.T, got models.ValidatedBatch, err error) {
				var unknown *UnknownSiteError
				if !errors.As(err, &unknown) {
					t.Fatalf("want UnknownSiteError, got %v", err)
				}
				if unknown.SiteID != "BLR999" {
					t.Errorf("error must carry the site id, got %q", unknown.SiteID)
				}
			},
		},
		{
			name:    "inactive site treated as unknown",
			payload: `{"site_id":"BLR002","readings":[{"sensor_type":"temperature","value":1}]}`,
			assertFunc: func(t *testing.T, got models.ValidatedBatch, err error) {
				var unknown *UnknownSiteError
				if !errors.As(err, &unknown) {
					t.Fatalf("want UnknownSiteError, got %v", err)
				}
			},
		},
		{
			name: "non-numeric and incomplete entries dropped silently",
			payload: `{"site_id":"BLR001","readings":[
				{"sensor_type":"temperature","value":95.5},
				{"sensor_type":"pressure","value":"high"},
				{"sensor_type":"fuel_level"},
				{"value":42}
			]}`,
			assertFunc: func(t *testing.T, got models.ValidatedBatch, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(got.Readings) != 1 {
					t.Fatalf("want 1 surviving reading, got %d", len(got.Readings))
				}
				if got.Dropped != 3 {
					t.Errorf("want 3 dropped, got %d", got.Dropped)
				}
			},
		},
		{
			name:    "unregistered sensor type passes through",
			payload: `{"site_id":"BLR001","readings":[{"sensor_type":"vibration","value":0.8}]}`,
			assertFunc: func(t *testing.T, got models.ValidatedBatch, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(got.Readings) != 1 || got.Readings[0].SensorType != "vibration" {
					t.Fatalf("unregistered sensor types must be accepted: %+v", got)
				}
			},
		},
		{
			name:    "producer timestamp is honored",
			payload: `{"site_id":"BLR001","timestamp":"2026-03-01T12:00:00Z","readings":[{"sensor_type":"temperature","value":50}]}`,
			assertFunc: func(t *testing.T, got models.ValidatedBatch, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
				if !got.Readings[0].Timestamp.Equal(want) {
					t.Errorf("timestamp: want %v, got %v", want, got.Readings[0].Timestamp)
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := NewValidationService(knownSites())
			got, err := svc.Validate(context.Background(), []byte(tc.payload))
			tc.assertFunc(t, got, err)
		})
	}
}
