package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"boilermon/internal/alerts"
	"boilermon/internal/logger"
	"boilermon/internal/models"
	"boilermon/internal/repository"
)

// EvaluatorService matches readings against active alert rules. Each
// matching rule produces an independent event; there is no dedup across
// rules or across repeated ingests of the same reading.
type EvaluatorService struct {
	rules repository.RuleRepo
	queue *alerts.Queue
	log   *logger.Logger
}

func NewEvaluatorService(rules repository.RuleRepo, queue *alerts.Queue, log *logger.Logger) *EvaluatorService {
	return &EvaluatorService{rules: rules, queue: queue, log: log}
}

// Evaluate returns the alert events triggered by one reading.
func (s *EvaluatorService) Evaluate(ctx context.Context, r models.Reading) ([]models.AlertEvent, error) {
	rules, err := s.rules.ActiveForParameter(ctx, r.SiteID, r.SensorType)
	if err != nil {
		return nil, fmt.Errorf("load rules for %s/%s: %w", r.SiteID, r.SensorType, err)
	}

	var events []models.AlertEvent
	for _, rule := range rules {
		if !ruleTriggers(rule, r.Value) {
			continue
		}
		events = append(events, models.AlertEvent{
			AlertID:     uuid.NewString(),
			SiteID:      r.SiteID,
			Severity:    rule.Severity,
			Message:     alertMessage(rule, r.Value),
			Value:       r.Value,
			TriggeredAt: time.Now().UTC(),
			Status:      models.AlertQueued,
		})
	}
	return events, nil
}

// EvaluateAndEnqueue runs Evaluate and pushes every event onto the
// queue. Failures are logged only: alerting must never break ingestion.
func (s *EvaluatorService) EvaluateAndEnqueue(ctx context.Context, r models.Reading) {
	events, err := s.Evaluate(ctx, r)
	if err != nil {
		s.log.Errorw("alert_evaluate_failed",
			"err", err, "site_id", r.SiteID, "sensor_type", r.SensorType)
		return
	}
	for _, evt := range events {
		if err := s.queue.Enqueue(ctx, evt); err != nil {
			s.log.Errorw("alert_enqueue_failed", "err", err, "alert_id", evt.AlertID)
			continue
		}
		s.log.Infow("alert_queued",
			"alert_id", evt.AlertID,
			"site_id", evt.SiteID,
			"severity", evt.Severity,
		)
	}
}

// ruleTriggers evaluates one condition. Rules with a missing threshold
// for their condition never trigger.
func ruleTriggers(rule models.AlertRule, value float64) bool {
	min, max := rule.ThresholdMin, rule.ThresholdMax
	switch rule.Condition {
	case models.CondAbove:
		return max != nil && value > *max
	case models.CondBelow:
		return min != nil && value < *min
	case models.CondBetween:
		// Triggers when inside the band, as configured for
		// "acceptable band" alerting.
		return min != nil && max != nil && *min <= value && value <= *max
	case models.CondOutside:
		return min != nil && max != nil && (value < *min || value > *max)
	default:
		return false
	}
}

func alertMessage(rule models.AlertRule, value float64) string {
	switch rule.Condition {
	case models.CondAbove:
		return fmt.Sprintf("High %s detected: %.2f (threshold %.2f)", rule.Parameter, value, *rule.ThresholdMax)
	case models.CondBelow:
		return fmt.Sprintf("Low %s detected: %.2f (threshold %.2f)", rule.Parameter, value, *rule.ThresholdMin)
	case models.CondBetween:
		return fmt.Sprintf("%s value %.2f inside band [%.2f, %.2f]", rule.Parameter, value, *rule.ThresholdMin, *rule.ThresholdMax)
	default:
		return fmt.Sprintf("%s value %.2f outside range [%.2f, %.2f]", rule.Parameter, value, *rule.ThresholdMin, *rule.ThresholdMax)
	}
}
