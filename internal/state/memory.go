package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory keeps conversation slots in process. Entries expire after ttl of
// inactivity; a zero ttl keeps them forever.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]memoryEntry
	ttl    time.Duration
	log    *zap.Logger
	stopCh chan struct{}
	once   sync.Once
}

func NewMemory(ttl time.Duration, log *zap.Logger) *Memory {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Memory{
		data:   make(map[string]memoryEntry),
		ttl:    ttl,
		log:    log,
		stopCh: make(chan struct{}),
	}
	if ttl > 0 {
		go m.cleanupLoop(ttl)
	}
	return m
}

func (m *Memory) Get(ctx context.Context, key string) (Conversation, bool, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok || m.expired(e, time.Now()) {
		return Conversation{}, false, nil
	}
	c, err := decode(e.value)
	if err != nil {
		return Conversation{}, false, err
	}
	return c, true, nil
}

func (m *Memory) Set(ctx context.Context, key string, c Conversation) error {
	b, err := encode(c)
	if err != nil {
		return err
	}
	e := memoryEntry{value: b}
	if m.ttl > 0 {
		e.expiresAt = time.Now().Add(m.ttl)
	}

	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stopCh) })
	return nil
}

func (m *Memory) expired(e memoryEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

func (m *Memory) cleanupLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			m.sweep(time.Now())
		}
	}
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.data {
		if m.expired(e, now) {
			delete(m.data, k)
			removed++
		}
	}
	if removed > 0 {
		m.log.Debug("expired conversation state removed", zap.Int("count", removed))
	}
}
