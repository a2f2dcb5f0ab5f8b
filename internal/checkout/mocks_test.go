package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/domain"
)

type MockBackend struct {
	TicketResp  *backend.TicketResponse
	TicketErr   error
	InvoiceResp *backend.InvoiceResponse
	InvoiceErr  error

	TicketCalls  int
	InvoiceCalls int
	LastTicket   *backend.TicketRequest
	LastInvoice  *backend.InvoiceRequest
	CtxErr       error
}

func (m *MockBackend) SubmitTicket(ctx context.Context, req *backend.TicketRequest) (*backend.TicketResponse, error) {
	m.TicketCalls++
	m.LastTicket = req
	m.CtxErr = ctx.Err()
	if m.TicketErr != nil {
		return nil, m.TicketErr
	}
	return m.TicketResp, nil
}

func (m *MockBackend) SubmitInvoice(ctx context.Context, req *backend.InvoiceRequest) (*backend.InvoiceResponse, error) {
	m.InvoiceCalls++
	m.LastInvoice = req
	m.CtxErr = ctx.Err()
	if m.InvoiceErr != nil {
		return nil, m.InvoiceErr
	}
	return m.InvoiceResp, nil
}

func (m *MockBackend) Calls() int {
	return m.TicketCalls + m.InvoiceCalls
}

type MockRecorder struct {
	mu        sync.Mutex
	Err       error
	MarkErr   error
	Recorded  []*domain.Settlement
	Published []string
}

func (m *MockRecorder) Record(_ context.Context, s *domain.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recorded = append(m.Recorded, s)
	return m.Err
}

func (m *MockRecorder) MarkPublished(_ context.Context, id string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, id)
	return m.MarkErr
}

type MockPublisher struct {
	mu        sync.Mutex
	Err       error
	Published []*domain.Settlement
}

func (m *MockPublisher) PublishSettled(_ context.Context, s *domain.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, s)
	return m.Err
}

type observation struct {
	Kind   domain.SettlementKind
	Status domain.CheckoutStatus
}

type MockMetrics struct {
	Observed []observation
}

func (m *MockMetrics) ObserveCheckout(kind domain.SettlementKind, status domain.CheckoutStatus, _ time.Duration) {
	m.Observed = append(m.Observed, observation{kind, status})
}
