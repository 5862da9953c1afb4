package service

import (
	"context"
	"testing"
	"time"

	"boilermon/internal/alerts"
	"boilermon/internal/cache"
	"boilermon/internal/logger"
	"boilermon/internal/models"
)

// ruleRepoStub serves a fixed rule set.
type ruleRepoStub struct {
	rules []models.AlertRule
	err   error
}

func (s *ruleRepoStub) ActiveForParameter(ctx context.Context, siteID, parameter string) ([]models.AlertRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.AlertRule
	for _, r := range s.rules {
		if r.SiteID == siteID && r.Parameter == parameter {
			out = append(out, r)
		}
	}
	return out, nil
}

func f(v float64) *float64 { return &v }

func tempAboveRule(threshold float64, severity string) models.AlertRule {
	return models.AlertRule{
		ID:           1,
		SiteID:       "BLR001",
		Parameter:    "temperature",
		Condition:    models.CondAbove,
		ThresholdMax: f(threshold),
		Severity:     severity,
		IsActive:     true,
	}
}

func newEvaluator(rules ...models.AlertRule) (*EvaluatorService, *alerts.Queue) {
	queue := alerts.NewQueue(cache.NewMemory())
	svc := NewEvaluatorService(&ruleRepoStub{rules: rules}, queue, logger.Get(logger.ErrorLevel))
	return svc, queue
}

func TestEvaluatorService_Evaluate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		rule      models.AlertRule
		value     float64
		wantFired bool
	}{
		{"above fires over threshold", tempAboveRule(100, models.SeverityHigh), 105, true},
		{"above silent under threshold", tempAboveRule(100, models.SeverityHigh), 95, false},
		{"above silent at threshold", tempAboveRule(100, models.SeverityHigh), 100, false},
		{
			"below fires under threshold",
			models.AlertRule{SiteID: "BLR001", Parameter: "temperature", Condition: models.CondBelow, ThresholdMin: f(10), Severity: models.SeverityLow, IsActive: true},
			5, true,
		},
		{
			"between fires inside band",
			models.AlertRule{SiteID: "BLR001", Parameter: "temperature", Condition: models.CondBetween, ThresholdMin: f(90), ThresholdMax: f(110), Severity: models.SeverityMedium, IsActive: true},
			100, true,
		},
		{
			"between silent outside band",
			models.AlertRule{SiteID: "BLR001", Parameter: "temperature", Condition: models.CondBetween, ThresholdMin: f(90), ThresholdMax: f(110), Severity: models.SeverityMedium, IsActive: true},
			80, false,
		},
		{
			"outside fires below min",
			models.AlertRule{SiteID: "BLR001", Parameter: "temperature", Condition: models.CondOutside, ThresholdMin: f(20), ThresholdMax: f(110), Severity: models.SeverityCritical, IsActive: true},
			10, true,
		},
		{
			"outside silent inside range",
			models.AlertRule{SiteID: "BLR001", Parameter: "temperature", Condition: models.CondOutside, ThresholdMin: f(20), ThresholdMax: f(110), Severity: models.SeverityCritical, IsActive: true},
			50, false,
		},
		{
			"above with missing threshold never fires",
			models.AlertRule{SiteID: "BLR001", Parameter: "temperature", Condition: models.CondAbove, Severity: models.SeverityHigh, IsActive: true},
			500, false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newEvaluator(tc.rule)
			events, err := svc.Evaluate(context.Background(), models.Reading{
				SiteID:     "BLR001",
				SensorType: "temperature",
				Value:      tc.value,
				Timestamp:  time.Now().UTC(),
			})
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if fired := len(events) == 1; fired != tc.wantFired {
				t.Fatalf("fired=%v, want %v (events=%d)", fired, tc.wantFired, len(events))
			}
			if tc.wantFired {
				evt := events[0]
				if evt.Severity != tc.rule.Severity {
					t.Errorf("severity copied from rule: want %q, got %q", tc.rule.Severity, evt.Severity)
				}
				if evt.Status != models.AlertQueued {
					t.Errorf("new event must be queued, got %q", evt.Status)
				}
				if evt.AlertID == "" || evt.Message == "" {
					t.Errorf("event must carry id and message: %+v", evt)
				}
				if evt.Value != tc.value {
					t.Errorf("event value: want %v, got %v", tc.value, evt.Value)
				}
			}
		})
	}
}

func TestEvaluatorService_MultipleRulesFireIndependently(t *testing.T) {
	t.Parallel()

	svc, _ := newEvaluator(
		tempAboveRule(100, models.SeverityHigh),
		tempAboveRule(90, models.SeverityMedium),
	)
	events, err := svc.Evaluate(context.Background(), models.Reading{
		SiteID: "BLR001", SensorType: "temperature", Value: 105,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("each matching rule fires its own event, got %d", len(events))
	}
	if events[0].AlertID == events[1].AlertID {
		t.Error("events must carry distinct ids")
	}
}

func TestEvaluatorService_EvaluateAndEnqueue(t *testing.T) {
	t.Parallel()

	svc, queue := newEvaluator(tempAboveRule(100, models.SeverityHigh))
	svc.EvaluateAndEnqueue(context.Background(), models.Reading{
		SiteID: "BLR001", SensorType: "temperature", Value: 105,
	})

	evt, err := queue.Dequeue(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if evt.SiteID != "BLR001" || evt.Severity != models.SeverityHigh {
		t.Errorf("queued event: %+v", evt)
	}
}

func TestEvaluatorService_NoRulesNoEvents(t *testing.T) {
	t.Parallel()

	svc, queue := newEvaluator()
	svc.EvaluateAndEnqueue(context.Background(), models.Reading{
		SiteID: "BLR001", SensorType: "pressure", Value: 999,
	})
	if _, err := queue.Dequeue(context.Background(), 30*time.Millisecond); err == nil {
		t.Fatal("nothing should be queued without matching rules")
	}
}
