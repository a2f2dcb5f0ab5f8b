package http

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/caja-service/internal/binder"
	"github.com/fjod/go_cart/caja-service/internal/checkout"
	"github.com/fjod/go_cart/caja-service/internal/domain"
)

// MockService answers every call with the configured values and records which terminal asked.
type MockService struct {
	mu sync.Mutex

	Products    []domain.Product
	Sess        *domain.Session
	Outcome     binder.LookupOutcome
	Result      *checkout.Result
	List        []*domain.Settlement
	One         *domain.Settlement
	Err         error
	IsPolling   bool
	StartEmpty  bool
	LastLimit   int
	LastProduct int64
	LastQty     int
	LastMethod  string
	LastDoc     string
	LastEdit    domain.Customer
	Terminals   []string
	Stopped     int
	ResetCalled bool
}

func (m *MockService) seen(terminalID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Terminals = append(m.Terminals, terminalID)
}

func (m *MockService) session(terminalID string) (*domain.Session, error) {
	m.seen(terminalID)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Sess == nil {
		return domain.NewSession(terminalID), nil
	}
	return m.Sess, nil
}

func (m *MockService) Catalog(context.Context) ([]domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Products, nil
}

func (m *MockService) Session(_ context.Context, terminalID string) (*domain.Session, error) {
	return m.session(terminalID)
}

func (m *MockService) AddItem(_ context.Context, terminalID string, productID int64) (*domain.Session, error) {
	m.LastProduct = productID
	return m.session(terminalID)
}

func (m *MockService) SetQuantity(_ context.Context, terminalID string, productID int64, quantity int) (*domain.Session, error) {
	m.LastProduct = productID
	m.LastQty = quantity
	return m.session(terminalID)
}

func (m *MockService) RemoveItem(_ context.Context, terminalID string, productID int64) (*domain.Session, error) {
	m.LastProduct = productID
	return m.session(terminalID)
}

func (m *MockService) SetPayment(_ context.Context, terminalID, method string, _ bool) (*domain.Session, error) {
	m.LastMethod = method
	return m.session(terminalID)
}

func (m *MockService) Reset(_ context.Context, terminalID string) error {
	m.seen(terminalID)
	m.ResetCalled = true
	return m.Err
}

func (m *MockService) Recognizing(string) bool {
	return m.IsPolling
}

func (m *MockService) LookupCustomer(_ context.Context, terminalID, documentNumber string) (*domain.Session, binder.LookupOutcome, error) {
	m.LastDoc = documentNumber
	sess, err := m.session(terminalID)
	return sess, m.Outcome, err
}

func (m *MockService) UpdateCustomer(_ context.Context, terminalID string, c domain.Customer) (*domain.Session, error) {
	m.LastEdit = c
	return m.session(terminalID)
}

func (m *MockService) NewCustomer(_ context.Context, terminalID string) (*domain.Session, error) {
	return m.session(terminalID)
}

func (m *MockService) StartRecognition(_ context.Context, terminalID string, startEmpty bool) (*domain.Session, error) {
	m.StartEmpty = startEmpty
	return m.session(terminalID)
}

func (m *MockService) StopRecognition(terminalID string) {
	m.seen(terminalID)
	m.Stopped++
}

func (m *MockService) Checkout(_ context.Context, terminalID string) (*checkout.Result, *domain.Session, error) {
	sess, _ := m.session(terminalID)
	return m.Result, sess, m.Err
}

func (m *MockService) Settlements(_ context.Context, terminalID string, limit int) ([]*domain.Settlement, error) {
	m.seen(terminalID)
	m.LastLimit = limit
	return m.List, m.Err
}

func (m *MockService) Settlement(_ context.Context, terminalID, _ string) (*domain.Settlement, error) {
	m.seen(terminalID)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.One, nil
}
