package store

import (
	"context"
	"sync"
	"time"
)

const (
	memoryStoreMaxSize = 60000 // maximum number of codes to store in memory
)

type memoryEntry struct {
	expiresIn int
	expiresAt time.Time
}

type memoryStore struct {
	maxSize       int
	codes         map[string]memoryEntry
	evictionQueue []string
	mu            sync.Mutex

	nowFunc func() time.Time
}

func NewMemoryStore() *memoryStore {
	return &memoryStore{
		maxSize: memoryStoreMaxSize,
		codes:   make(map[string]memoryEntry),
		nowFunc: time.Now,
	}
}

func (m *memoryStore) Put(_ context.Context, code string, expiresIn int, ttl time.Duration) error {
	m.mu.Lock()
	defer func() { m.collectGarbage(); m.mu.Unlock() }()

	// Enforce maximum size.
	for len(m.codes) >= m.maxSize {
		oldest := m.evictionQueue[0]
		m.evictionQueue = m.evictionQueue[1:]
		delete(m.codes, oldest)
	}

	m.codes[code] = memoryEntry{
		expiresIn: expiresIn,
		expiresAt: m.nowFunc().Add(ttl),
	}
	m.evictionQueue = append(m.evictionQueue, code)
	return nil
}

func (m *memoryStore) Get(_ context.Context, code string) (int, bool, error) {
	m.mu.Lock()
	e, ok := m.codes[code]
	m.collectGarbage()
	m.mu.Unlock()

	if !ok || e.expiresAt.Before(m.nowFunc()) {
		return 0, false, nil
	}
	return e.expiresIn, true, nil
}

func (m *memoryStore) collectGarbage() {
	var evictionQueue []string
	for _, code := range m.evictionQueue {
		e, ok := m.codes[code]
		if !ok {
			continue
		}
		if m.nowFunc().Before(e.expiresAt) {
			evictionQueue = append(evictionQueue, code)
		} else {
			delete(m.codes, code)
		}
	}
	m.evictionQueue = evictionQueue
}
