package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired, and by BRPop on
// timeout. Absence is the correct answer for expired entries; callers
// must never be handed stale data as current.
var ErrMiss = errors.New("cache: miss")

// Key namespace shared with the rest of the platform. Kept stable for
// interop and debuggability against a live Redis.
const (
	latestPrefix    = "latest:"
	dashboardPrefix = "dashboard:"
	userDashPrefix  = "user_dashboard:"

	// AlertQueueKey is the list backing the alert processing queue.
	AlertQueueKey = "alerts:processing_queue"
)

// TTLs per key class.
const (
	LatestTTL        = 300 * time.Second
	DashboardTTL     = 60 * time.Second
	AlertQueueTTL    = 24 * time.Hour
	UserDashboardTTL = 1800 * time.Second
)

// LatestKey addresses the latest cached reading for one sensor of a site.
func LatestKey(siteID, sensorType string) string {
	return latestPrefix + siteID + ":" + sensorType
}

// DashboardKey addresses the aggregated snapshot of a site.
func DashboardKey(siteID string) string {
	return dashboardPrefix + siteID
}

// UserDashboardKey addresses a user's dashboard config. The entry itself
// is owned by the session-management service; only the namespace lives here.
func UserDashboardKey(userID string) string {
	return userDashPrefix + userID
}

// Stats is coarse introspection data for the stats endpoint.
type Stats struct {
	Keys       int64  `json:"keys"`
	MemoryUsed string `json:"memory_used,omitempty"`
}

// Store is the ephemeral low-latency store: per-key expiry plus a list
// usable as a blocking queue. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value at key, or ErrMiss if absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// SetEX upserts key with the given TTL, unconditionally overwriting.
	SetEX(ctx context.Context, key, value string, ttl time.Duration) error
	// LPush prepends value to the list at key.
	LPush(ctx context.Context, key, value string) error
	// BRPop pops the oldest element of the list at key, blocking up to
	// wait. Returns ErrMiss when the wait elapses on an empty list.
	BRPop(ctx context.Context, wait time.Duration, key string) (string, error)
	// Expire sets or refreshes the TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Info reports key count and memory diagnostics.
	Info(ctx context.Context) (Stats, error)
	Close() error
}
