package binder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/caja-service/internal/backend"
)

type MockDirectory struct {
	Record    *backend.ClientRecord
	Err       error
	Delay     time.Duration
	BlankErr  error
	BlankDone chan struct{}

	lookups atomic.Int32
	blanks  atomic.Int32
}

func (m *MockDirectory) GetClient(ctx context.Context, _ string) (*backend.ClientRecord, error) {
	m.lookups.Add(1)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Record, nil
}

func (m *MockDirectory) CreateBlankClient(context.Context) error {
	m.blanks.Add(1)
	if m.BlankDone != nil {
		close(m.BlankDone)
	}
	return m.BlankErr
}

// MockRecognizer replays Responses in order, repeating the last one.
type MockRecognizer struct {
	mu        sync.Mutex
	Responses []RecognizerStep
	calls     int
}

type RecognizerStep struct {
	Resp *backend.RecognitionResponse
	Err  error
}

func (m *MockRecognizer) LastRecognized(context.Context) (*backend.RecognitionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	m.calls++
	step := m.Responses[i]
	return step.Resp, step.Err
}

func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
