package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/checkout"
	"github.com/fjod/go_cart/caja-service/internal/domain"
	"github.com/fjod/go_cart/caja-service/internal/session"
)

type mockDirectory struct {
	record *backend.ClientRecord
	err    error
	blanks atomic.Int32
}

func (m *mockDirectory) GetClient(context.Context, string) (*backend.ClientRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func (m *mockDirectory) CreateBlankClient(context.Context) error {
	m.blanks.Add(1)
	return nil
}

// mockRecognizer reports not-recognized until match is set.
type mockRecognizer struct {
	mu    sync.Mutex
	match *backend.Person
	calls int
}

func (m *mockRecognizer) LastRecognized(context.Context) (*backend.RecognitionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.match == nil {
		return &backend.RecognitionResponse{Recognized: false}, nil
	}
	return &backend.RecognitionResponse{Recognized: true, Person: m.match}, nil
}

func (m *mockRecognizer) setMatch(p *backend.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.match = p
}

func (m *mockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockBackend struct {
	ticketErr  error
	invoiceErr error
	calls      atomic.Int32
}

func (m *mockBackend) SubmitTicket(context.Context, *backend.TicketRequest) (*backend.TicketResponse, error) {
	m.calls.Add(1)
	if m.ticketErr != nil {
		return nil, m.ticketErr
	}
	return &backend.TicketResponse{Message: "ok"}, nil
}

func (m *mockBackend) SubmitInvoice(context.Context, *backend.InvoiceRequest) (*backend.InvoiceResponse, error) {
	m.calls.Add(1)
	if m.invoiceErr != nil {
		return nil, m.invoiceErr
	}
	return &backend.InvoiceResponse{InvoiceID: "SETP1", CUFE: "cufe"}, nil
}

type recordingPollMetrics struct {
	active atomic.Int32
	ticks  atomic.Int32
}

func (m *recordingPollMetrics) ObservePollTick(string) { m.ticks.Add(1) }
func (m *recordingPollMetrics) PollerStarted()         { m.active.Add(1) }
func (m *recordingPollMetrics) PollerStopped()         { m.active.Add(-1) }

var _ Finalizer = (*checkout.Coordinator)(nil)

// flakyStore wraps a memory store and fails writes while failSet is set.
type flakyStore struct {
	*session.MemoryStore
	failSet atomic.Bool
}

func (f *flakyStore) Set(ctx context.Context, sess *domain.Session) error {
	if f.failSet.Load() {
		return errors.New("redis: connection refused")
	}
	return f.MemoryStore.Set(ctx, sess)
}
