package models

import "time"

// BoilerSite is a physical boiler installation. Sites are provisioned
// externally; the ingestion core only reads them.
type BoilerSite struct {
	ID          int       `json:"id"`
	SiteID      string    `json:"site_id"` // e.g. "BLR001"
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	InstalledAt time.Time `json:"installed_at"`
	IsActive    bool      `json:"is_active"`
}

// Known sensor types. Descriptors are advisory: readings for types not
// listed here are still accepted and cached.
const (
	SensorTemperature = "temperature"
	SensorPressure    = "pressure"
	SensorFuelLevel   = "fuel_level"
	SensorFlowRate    = "flow_rate"
	SensorEfficiency  = "efficiency"
)

// SensorDescriptor describes one sensor mounted on a boiler site.
// MinValue/MaxValue bound the plausible range; nil means unbounded.
type SensorDescriptor struct {
	ID       int      `json:"id"`
	SiteID   string   `json:"site_id"`
	SensorID string   `json:"sensor_id"`
	Type     string   `json:"sensor_type"`
	Unit     string   `json:"unit"` // e.g. "celsius", "bar", "liters"
	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
	IsActive bool     `json:"is_active"`
}

// SensorStatus is a descriptor merged with the latest cached reading,
// served by the per-site sensors endpoint.
type SensorStatus struct {
	SensorDescriptor
	LatestValue *float64   `json:"latest_value"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	DataSource  string     `json:"data_source"` // "cache" | "no_recent_data"
	OutOfRange  bool       `json:"out_of_range,omitempty"`
}
