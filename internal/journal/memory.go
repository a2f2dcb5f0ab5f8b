package journal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

// MemoryJournal keeps the most recent settlements per terminal in process memory.
type MemoryJournal struct {
	mu         sync.RWMutex
	byID       map[string]domain.Settlement
	byTerminal map[string][]string
	capacity   int
}

func NewMemoryJournal(capacity int) *MemoryJournal {
	if capacity <= 0 {
		capacity = maxLimit
	}
	return &MemoryJournal{
		byID:       make(map[string]domain.Settlement),
		byTerminal: make(map[string][]string),
		capacity:   capacity,
	}
}

func (m *MemoryJournal) Record(_ context.Context, s *domain.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[s.ID]; ok {
		return nil
	}
	m.byID[s.ID] = *s
	ids := append(m.byTerminal[s.TerminalID], s.ID)
	if len(ids) > m.capacity {
		delete(m.byID, ids[0])
		ids = ids[1:]
	}
	m.byTerminal[s.TerminalID] = ids
	return nil
}

func (m *MemoryJournal) List(_ context.Context, terminalID string, limit int) ([]*domain.Settlement, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Settlement, 0, len(m.byTerminal[terminalID]))
	for _, id := range m.byTerminal[terminalID] {
		s := m.byID[id]
		out = append(out, &s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SettledAt.After(out[j].SettledAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryJournal) Get(_ context.Context, id string) (*domain.Settlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byID[id]
	if !ok {
		return nil, ErrSettlementNotFound
	}
	return &s, nil
}

// Unpublished returns settlements whose event was never delivered, oldest first.
func (m *MemoryJournal) Unpublished(_ context.Context, limit int) ([]*domain.Settlement, error) {
	if limit <= 0 {
		limit = maxLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Settlement
	for _, s := range m.byID {
		if s.PublishedAt == nil {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SettledAt.Before(out[j].SettledAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryJournal) MarkPublished(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[id]
	if !ok {
		return ErrSettlementNotFound
	}
	s.PublishedAt = &at
	m.byID[id] = s
	return nil
}
