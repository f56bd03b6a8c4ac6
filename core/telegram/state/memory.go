package state

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]memoryEntry
	ttl      time.Duration

	sweepOnce sync.Once
}

// NewMemoryManager constructs an in-memory Manager. Sessions expire after ttl.
//
// Sessions are stored JSON-encoded so that the memory backend exhibits the
// same type drift as the redis one; tests against memory then catch accessor
// bugs that would otherwise only surface in production.
func NewMemoryManager(ttl time.Duration) Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &memoryManager{
		sessions: make(map[int64]memoryEntry),
		ttl:      ttl,
	}
}

func (m *memoryManager) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal(entry.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memoryManager) Begin(ctx context.Context, userID int64, flow, stage string) (*Session, error) {
	if existing, err := m.Get(ctx, userID); err != nil {
		return nil, err
	} else if existing.Active() {
		return nil, ErrDialogActive
	}
	s := NewSession(flow, stage)
	if err := m.Save(ctx, userID, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *memoryManager) Save(_ context.Context, userID int64, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[userID] = memoryEntry{data: data, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()
	m.sweepOnce.Do(func() { go m.sweep() })
	return nil
}

func (m *memoryManager) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

func (m *memoryManager) InProgress(ctx context.Context, userID int64) bool {
	s, err := m.Get(ctx, userID)
	return err == nil && s.Active()
}

func (m *memoryManager) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		m.mu.Lock()
		for id, entry := range m.sessions {
			if now.After(entry.expiresAt) {
				delete(m.sessions, id)
			}
		}
		m.mu.Unlock()
	}
}
