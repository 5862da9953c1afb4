package alerts

import (
	"context"
	"errors"
	"time"

	"boilermon/internal/logger"
	"boilermon/internal/models"
)

// dequeueWait bounds each blocking pop so the loop can notice
// cancellation between items.
const dequeueWait = 1 * time.Second

// Notifier hands a dispatched alert to the notification transport
// (email, SMS, webhook, websocket feed). Retries are the transport's
// responsibility, not the consumer's.
type Notifier interface {
	Notify(ctx context.Context, evt models.AlertEvent) error
}

// Consumer drains the alert queue and invokes the notifier once per
// event. Delivery is at-least-once: events survive a crashed consumer in
// the queue, and duplicates are possible after partial failures.
type Consumer struct {
	queue    *Queue
	notifier Notifier
	log      *logger.Logger
}

func NewConsumer(queue *Queue, notifier Notifier, log *logger.Logger) *Consumer {
	return &Consumer{queue: queue, notifier: notifier, log: log}
}

// Run loops until ctx is cancelled. An empty queue is not an exit
// condition; the loop simply blocks for the next event.
func (c *Consumer) Run(ctx context.Context) {
	c.log.Infow("alert_consumer_started")
	for {
		select {
		case <-ctx.Done():
			c.log.Infow("alert_consumer_stopped")
			return
		default:
		}

		evt, err := c.queue.Dequeue(ctx, dequeueWait)
		if errors.Is(err, ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				c.log.Infow("alert_consumer_stopped")
				return
			}
			c.log.Errorw("alert_dequeue_failed", "err", err)
			continue
		}

		c.dispatch(ctx, *evt)
	}
}

func (c *Consumer) dispatch(ctx context.Context, evt models.AlertEvent) {
	evt.Status = models.AlertDispatched
	if err := c.notifier.Notify(ctx, evt); err != nil {
		// Not retried here; the event was consumed and the transport
		// owns any redelivery policy.
		c.log.Errorw("alert_notify_failed",
			"err", err,
			"alert_id", evt.AlertID,
			"site_id", evt.SiteID,
			"severity", evt.Severity,
		)
		return
	}
	c.log.Infow("alert_dispatched",
		"alert_id", evt.AlertID,
		"site_id", evt.SiteID,
		"severity", evt.Severity,
	)
}
