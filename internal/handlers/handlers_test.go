package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"boilermon/internal/alerts"
	"boilermon/internal/cache"
	"boilermon/internal/logger"
	"boilermon/internal/models"
	"boilermon/internal/repository"
	"boilermon/internal/service"
	"boilermon/internal/timeseries"
	"boilermon/internal/ws"
)

// In-memory repo stubs so the full service stack runs under httptest.

type siteRepoStub struct{}

func (siteRepoStub) GetBySiteID(ctx context.Context, siteID string) (*models.BoilerSite, error) {
	if siteID != "BLR001" {
		return nil, repository.ErrSiteNotFound
	}
	return &models.BoilerSite{ID: 1, SiteID: "BLR001", Name: "Main Plant", IsActive: true}, nil
}

type sensorRepoStub struct{}

func (sensorRepoStub) ListBySite(ctx context.Context, siteID string) ([]models.SensorDescriptor, error) {
	return []models.SensorDescriptor{
		{SiteID: siteID, SensorID: "T1", Type: "temperature", Unit: "celsius", IsActive: true},
	}, nil
}

type ruleRepoStub struct{ rules []models.AlertRule }

func (s ruleRepoStub) ActiveForParameter(ctx context.Context, siteID, parameter string) ([]models.AlertRule, error) {
	var out []models.AlertRule
	for _, r := range s.rules {
		if r.SiteID == siteID && r.Parameter == parameter {
			out = append(out, r)
		}
	}
	return out, nil
}

type logRepoStub struct {
	mu      sync.Mutex
	entries []models.IngestionLog
}

func (s *logRepoStub) Append(ctx context.Context, entry models.IngestionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *logRepoStub) StatsSince(ctx context.Context, since time.Time) (models.IngestionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := models.IngestionStats{}
	for _, e := range s.entries {
		switch e.Status {
		case models.IngestSuccess:
			stats.Success++
		case models.IngestError:
			stats.Error++
		case models.IngestPartial:
			stats.Partial++
		}
		stats.TotalRecords += e.RecordsCount
	}
	return stats, nil
}

type env struct {
	router *gin.Engine
	store  *cache.Memory
	queue  *alerts.Queue
}

func newTestEnv(rules ...models.AlertRule) *env {
	gin.SetMode(gin.TestMode)
	log := logger.Get(logger.ErrorLevel)

	store := cache.NewMemory()
	queue := alerts.NewQueue(store)
	repos := &repository.Repository{
		Sites:        siteRepoStub{},
		Sensors:      sensorRepoStub{},
		Rules:        ruleRepoStub{rules: rules},
		IngestionLog: &logRepoStub{},
	}
	services := service.NewService(repos, store, timeseries.Noop{}, queue, log)
	handler := NewHandler(services, ws.NewHub(log), log)
	return &env{router: handler.InitRoutes(), store: store, queue: queue}
}

func (e *env) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	e.router.ServeHTTP(w, req)
	return w
}

func TestIngestEndToEnd(t *testing.T) {
	e := newTestEnv()

	w := e.post(t, "/api/v1/ingest",
		`{"site_id":"BLR001","readings":[{"sensor_type":"temperature","value":95.5},{"sensor_type":"pressure","value":12.3}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("ingest status=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Status    string `json:"status"`
		SiteID    string `json:"site_id"`
		Processed int    `json:"processed_records"`
		Cached    int    `json:"cached_records"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "success" || resp.SiteID != "BLR001" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Processed != 2 || resp.Cached != 2 {
		t.Errorf("want processed=2 cached=2, got %d/%d", resp.Processed, resp.Cached)
	}

	// The snapshot is immediately readable from the cache.
	w = e.get(t, "/api/v1/sites/BLR001/realtime")
	if w.Code != http.StatusOK {
		t.Fatalf("realtime status=%d, body=%s", w.Code, w.Body.String())
	}
	var snap struct {
		SiteID   string                        `json:"site_id"`
		Status   string                        `json:"status"`
		Sensors  map[string]models.SensorValue `json:"sensors"`
		CacheHit bool                          `json:"cache_hit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if !snap.CacheHit {
		t.Error("expected cache_hit=true after ingest")
	}
	if len(snap.Sensors) != 2 {
		t.Errorf("snapshot must carry both sensors, got %v", snap.Sensors)
	}
	if snap.Status != models.StatusOnline {
		t.Errorf("healthy readings must leave the site online, got %q", snap.Status)
	}
}

func TestIngestUnknownSiteWritesNothing(t *testing.T) {
	e := newTestEnv()

	w := e.post(t, "/api/v1/ingest",
		`{"site_id":"BLR999","readings":[{"sensor_type":"temperature","value":95.5}]}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d (%s)", w.Code, w.Body.String())
	}
	if body := w.Body.String(); !bytes.Contains([]byte(body), []byte("not found")) {
		t.Errorf("404 body must mention not found, got %s", body)
	}

	// Validation aborts before any write: the cache stays empty.
	st, err := e.store.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if st.Keys != 0 {
		t.Errorf("no cache keys expected after rejected ingest, got %d", st.Keys)
	}
}

func TestIngestMalformedPayload(t *testing.T) {
	e := newTestEnv()

	w := e.post(t, "/api/v1/ingest", `{"site_id":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
	if body := w.Body.String(); !bytes.Contains([]byte(body), []byte("Invalid JSON payload")) {
		t.Errorf("unexpected 400 body: %s", body)
	}
}

func TestIngestTriggersAlert(t *testing.T) {
	max := 100.0
	e := newTestEnv(models.AlertRule{
		ID:           1,
		SiteID:       "BLR001",
		Parameter:    "temperature",
		Condition:    models.CondAbove,
		ThresholdMax: &max,
		Severity:     models.SeverityHigh,
		IsActive:     true,
	})

	payload := `{"site_id":"BLR001","readings":[{"sensor_type":"temperature","value":105}]}`
	if w := e.post(t, "/api/v1/ingest", payload); w.Code != http.StatusOK {
		t.Fatalf("ingest status=%d", w.Code)
	}

	evt, err := e.queue.Dequeue(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("expected queued alert: %v", err)
	}
	if evt.Severity != models.SeverityHigh || evt.Value != 105 {
		t.Errorf("queued event: %+v", evt)
	}

	// Re-ingesting the identical payload queues a duplicate event: the
	// queue is deliberately not deduplicated.
	if w := e.post(t, "/api/v1/ingest", payload); w.Code != http.StatusOK {
		t.Fatalf("re-ingest status=%d", w.Code)
	}
	if _, err := e.queue.Dequeue(context.Background(), 100*time.Millisecond); err != nil {
		t.Fatalf("expected duplicate alert: %v", err)
	}
}

func TestRealtimeMissWithoutFallbackData(t *testing.T) {
	e := newTestEnv()

	w := e.get(t, "/api/v1/sites/BLR001/realtime")
	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404 when cache and store are both empty, got %d", w.Code)
	}
}

func TestSensorsEndpoint(t *testing.T) {
	e := newTestEnv()

	// Without any ingest the descriptor reports no recent data.
	w := e.get(t, "/api/v1/sites/BLR001/sensors")
	if w.Code != http.StatusOK {
		t.Fatalf("sensors status=%d", w.Code)
	}
	var resp struct {
		Sensors []models.SensorStatus `json:"sensors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Sensors) != 1 {
		t.Fatalf("want 1 sensor, got %d", len(resp.Sensors))
	}
	if resp.Sensors[0].LatestValue != nil || resp.Sensors[0].DataSource != "no_recent_data" {
		t.Errorf("expected no_recent_data, got %+v", resp.Sensors[0])
	}

	// After an ingest the latest value is merged in.
	e.post(t, "/api/v1/ingest", `{"site_id":"BLR001","readings":[{"sensor_type":"temperature","value":42}]}`)
	w = e.get(t, "/api/v1/sites/BLR001/sensors")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Sensors[0].LatestValue == nil || *resp.Sensors[0].LatestValue != 42 {
		t.Errorf("expected latest value 42, got %+v", resp.Sensors[0])
	}
	if resp.Sensors[0].DataSource != "cache" {
		t.Errorf("data source: want cache, got %q", resp.Sensors[0].DataSource)
	}
}

func TestStatsEndpoint(t *testing.T) {
	e := newTestEnv()

	e.post(t, "/api/v1/ingest", `{"site_id":"BLR001","readings":[{"sensor_type":"temperature","value":42}]}`)

	w := e.get(t, "/api/v1/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Ingestion models.IngestionStats `json:"ingestion_24h"`
		Cache     cache.Stats           `json:"cache"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Ingestion.Success != 1 {
		t.Errorf("want 1 successful batch, got %+v", resp.Ingestion)
	}
	if resp.Cache.Keys == 0 {
		t.Error("cache diagnostics must report live keys")
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEnv()

	w := e.get(t, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
	if body := w.Body.String(); !bytes.Contains([]byte(body), []byte("boilermon")) {
		t.Errorf("health body: %s", body)
	}
}
