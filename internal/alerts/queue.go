package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boilermon/internal/cache"
	"boilermon/internal/models"
)

// ErrEmpty is returned by Dequeue when the wait elapses on an empty queue.
var ErrEmpty = errors.New("alert queue: empty")

// Queue is the pending-alert queue backed by the cache's
// alerts:processing_queue list. Push refreshes a 24h expiry on the whole
// list as coarse leak prevention; it is not a delivery guarantee.
type Queue struct {
	store cache.Store
}

func NewQueue(store cache.Store) *Queue {
	return &Queue{store: store}
}

// Enqueue pushes one event at the head of the queue. Called from the
// ingestion path, so it must return quickly and never block on a consumer.
func (q *Queue) Enqueue(ctx context.Context, evt models.AlertEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal alert %s: %w", evt.AlertID, err)
	}
	if err := q.store.LPush(ctx, cache.AlertQueueKey, string(payload)); err != nil {
		return fmt.Errorf("enqueue alert %s: %w", evt.AlertID, err)
	}
	if err := q.store.Expire(ctx, cache.AlertQueueKey, cache.AlertQueueTTL); err != nil {
		return fmt.Errorf("refresh queue expiry: %w", err)
	}
	return nil
}

// Dequeue pops the oldest pending event, blocking up to wait.
// Returns ErrEmpty when nothing arrived within the wait.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (*models.AlertEvent, error) {
	raw, err := q.store.BRPop(ctx, wait, cache.AlertQueueKey)
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue alert: %w", err)
	}

	var evt models.AlertEvent
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		return nil, fmt.Errorf("decode queued alert: %w", err)
	}
	return &evt, nil
}
