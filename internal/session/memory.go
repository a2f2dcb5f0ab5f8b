package session

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

// MemoryStore is used when no Redis address is configured. Sessions live as long as the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*domain.Session)}
}

func (m *MemoryStore) Get(_ context.Context, terminalID string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[terminalID]
	if !ok {
		return nil, ErrSessionMiss
	}
	return sess.Clone(), nil
}

func (m *MemoryStore) Set(_ context.Context, sess *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.TerminalID] = sess.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, terminalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, terminalID)
	return nil
}
