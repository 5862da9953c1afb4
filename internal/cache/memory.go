package cache

import (
	"context"
	"sync"
	"time"
)

// brpopPollInterval bounds how long a blocked Memory.BRPop waits between
// re-checks of the list.
const brpopPollInterval = 10 * time.Millisecond

type memEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

type memList struct {
	items     []string // head at index 0, LPush prepends
	expiresAt time.Time
}

// Memory is an in-process Store used for development and tests. TTL
// checks run lazily against an injectable clock so tests can simulate
// expiry without sleeping.
type Memory struct {
	mu    sync.Mutex
	kv    map[string]memEntry
	lists map[string]*memList
	now   func() time.Time
}

func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock builds a Memory store that reads time from now.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		kv:    make(map[string]memEntry),
		lists: make(map[string]*memList),
		now:   now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.kv[key]
	if !ok {
		return "", ErrMiss
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.kv, key)
		return "", ErrMiss
	}
	return e.value, nil
}

func (m *Memory) SetEX(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.kv[key] = e
	return nil
}

func (m *Memory) LPush(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.liveList(key)
	if l == nil {
		l = &memList{}
		m.lists[key] = l
	}
	l.items = append([]string{value}, l.items...)
	return nil
}

func (m *Memory) BRPop(ctx context.Context, wait time.Duration, key string) (string, error) {
	deadline := time.Now().Add(wait)
	for {
		if v, ok := m.tryRPop(key); ok {
			return v, nil
		}
		if time.Now().After(deadline) {
			return "", ErrMiss
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(brpopPollInterval):
		}
	}
}

func (m *Memory) tryRPop(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.liveList(key)
	if l == nil || len(l.items) == 0 {
		return "", false
	}
	v := l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	if len(l.items) == 0 {
		delete(m.lists, key)
	}
	return v, true
}

func (m *Memory) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp := m.now().Add(ttl)
	if e, ok := m.kv[key]; ok {
		e.expiresAt = exp
		m.kv[key] = e
	}
	if l := m.liveList(key); l != nil {
		l.expiresAt = exp
	}
	return nil
}

func (m *Memory) Info(ctx context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys int64
	now := m.now()
	for k, e := range m.kv {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.kv, k)
			continue
		}
		keys++
	}
	for k := range m.lists {
		if m.liveList(k) != nil {
			keys++
		}
	}
	return Stats{Keys: keys}, nil
}

func (m *Memory) Close() error { return nil }

// liveList returns the list at key, evicting it first if expired.
// Caller must hold mu.
func (m *Memory) liveList(key string) *memList {
	l, ok := m.lists[key]
	if !ok {
		return nil
	}
	if !l.expiresAt.IsZero() && !m.now().Before(l.expiresAt) {
		delete(m.lists, key)
		return nil
	}
	return l
}
