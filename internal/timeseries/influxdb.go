package timeseries

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"boilermon/internal/models"
)

const (
	measurement = "sensor_reading"
	valueField  = "value"

	// fallbackRange bounds how far back a cache-miss fallback query looks.
	fallbackRange = "-24h"
)

// Config carries InfluxDB connection settings.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Influx is the InfluxDB-backed Store. One client is built at startup
// and shared; the blocking write API keeps the ingestion path simple.
type Influx struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
}

func NewInflux(cfg Config) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
	}
}

func (db *Influx) Append(ctx context.Context, r models.Reading) error {
	if err := db.writeAPI.WritePoint(ctx, buildPoint(r)); err != nil {
		return fmt.Errorf("influx write %s/%s: %w", r.SiteID, r.SensorType, err)
	}
	return nil
}

func (db *Influx) LatestBySite(ctx context.Context, siteID string) (models.SiteSnapshot, error) {
	result, err := db.queryAPI.Query(ctx, latestFlux(db.bucket, siteID))
	if err != nil {
		return models.SiteSnapshot{}, fmt.Errorf("influx query latest for %s: %w", siteID, err)
	}

	snap := models.SiteSnapshot{
		SiteID:  siteID,
		Status:  models.StatusOnline,
		Sensors: make(map[string]models.SensorValue),
	}
	for result.Next() {
		rec := result.Record()
		sensorType, _ := rec.ValueByKey("sensor_type").(string)
		value, ok := rec.Value().(float64)
		if sensorType == "" || !ok {
			continue
		}
		snap.Sensors[sensorType] = models.SensorValue{Value: value, Timestamp: rec.Time()}
		if rec.Time().After(snap.LastUpdated) {
			snap.LastUpdated = rec.Time()
		}
	}
	if err := result.Err(); err != nil {
		return models.SiteSnapshot{}, fmt.Errorf("influx result for %s: %w", siteID, err)
	}
	if len(snap.Sensors) == 0 {
		return models.SiteSnapshot{}, ErrNoData
	}
	return snap, nil
}

func (db *Influx) Close() {
	if db != nil && db.client != nil {
		db.client.Close()
	}
}

func buildPoint(r models.Reading) *write.Point {
	return write.NewPoint(
		measurement,
		map[string]string{
			"site_id":     r.SiteID,
			"sensor_type": r.SensorType,
		},
		map[string]interface{}{valueField: r.Value},
		r.Timestamp,
	)
}

// latestFlux selects the last stored value per sensor of one site.
func latestFlux(bucket, siteID string) string {
	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s)
  |> filter(fn: (r) => r._measurement == %q and r.site_id == %q and r._field == %q)
  |> last()`,
		bucket, fallbackRange, measurement, siteID, valueField)
}
