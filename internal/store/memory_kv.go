package store

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval how often writes trigger a full expiry sweep.
const DefaultSweepInterval = time.Minute

// MemoryKV in-process KV with TTL, used when Redis is disabled or unreachable.
// Expired entries are dropped on access and by a sweep that runs on writes
// at most once per sweep interval.
type MemoryKV struct {
	mu         sync.Mutex
	data       map[string]memoryItem
	now        func() time.Time
	sweepEvery time.Duration
	nextSweep  time.Time
}

type memoryItem struct {
	value   string
	expires time.Time // zero = no ttl
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		data:       map[string]memoryItem{},
		now:        time.Now,
		sweepEvery: DefaultSweepInterval,
	}
}

var _ KV = (*MemoryKV)(nil)

func (m *MemoryKV) expired(item memoryItem, now time.Time) bool {
	return !item.expires.IsZero() && !now.Before(item.expires)
}

func (m *MemoryKV) alive(key string) (memoryItem, bool) {
	item, ok := m.data[key]
	if !ok {
		return memoryItem{}, false
	}
	if m.expired(item, m.now()) {
		delete(m.data, key)
		return memoryItem{}, false
	}
	return item, true
}

// maybeSweep caller holds mu.
func (m *MemoryKV) maybeSweep() {
	now := m.now()
	if now.Before(m.nextSweep) {
		return
	}
	for k, item := range m.data {
		if m.expired(item, now) {
			delete(m.data, k)
		}
	}
	m.nextSweep = now.Add(m.sweepEvery)
}

func (m *MemoryKV) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.alive(key)
	if !ok {
		return "", ErrMiss
	}
	return item.value, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeSweep()
	m.data[key] = memoryItem{value: value, expires: m.expiry(ttl)}
	return nil
}

func (m *MemoryKV) SetNX(_ context.Context, key string, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeSweep()
	if _, ok := m.alive(key); ok {
		return false, nil
	}
	m.data[key] = memoryItem{value: value, expires: m.expiry(ttl)}
	return true, nil
}

func (m *MemoryKV) DelIfEqual(_ context.Context, key string, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.alive(key)
	if !ok || item.value != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *MemoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
