package models

import "time"

// Alert rule conditions.
const (
	CondAbove   = "above"   // triggers when value > threshold_max
	CondBelow   = "below"   // triggers when value < threshold_min
	CondBetween = "between" // triggers when threshold_min <= value <= threshold_max
	CondOutside = "outside" // triggers when value < threshold_min or value > threshold_max
)

// Alert severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// AlertRule is a threshold rule configured against one site parameter.
// Rules are managed externally; the evaluator only reads active ones.
type AlertRule struct {
	ID           int       `json:"id"`
	SiteID       string    `json:"site_id"`
	Parameter    string    `json:"parameter"` // sensor type, e.g. "temperature"
	Condition    string    `json:"condition"`
	ThresholdMin *float64  `json:"threshold_min,omitempty"`
	ThresholdMax *float64  `json:"threshold_max,omitempty"`
	Severity     string    `json:"severity"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Alert event lifecycle statuses.
const (
	AlertQueued     = "queued"
	AlertDispatched = "dispatched"
)

// AlertEvent is one triggered alert on its way through the queue.
// Delivery is at-least-once: a duplicate ingest of a violating reading
// enqueues a duplicate event.
type AlertEvent struct {
	AlertID     string    `json:"alert_id"`
	SiteID      string    `json:"site_id"`
	Severity    string    `json:"severity"`
	Message     string    `json:"message"`
	Value       float64   `json:"value"`
	TriggeredAt time.Time `json:"triggered_at"`
	Status      string    `json:"status"`
}
