package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/domain"
)

var (
	panDeBono = domain.Product{ID: 1, Name: "Pan de bono", UnitPrice: 2000}
	cafe      = domain.Product{ID: 4, Name: "Café americano", UnitPrice: 3000}
	fixedNow  = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
)

func readySession(eInvoice bool) *domain.Session {
	sess := domain.NewSession("caja-1")
	sess.Cart.AddProduct(panDeBono)
	sess.Cart.AddProduct(cafe)
	sess.Cart.AddProduct(cafe)
	sess.BindCustomer(domain.Customer{FullName: "Ana Gómez", DocumentNumber: "1020", Email: "ana@example.com", City: "Cali"})
	sess.PaymentMethod = "Efectivo"
	sess.WantsEInvoice = eInvoice
	return sess
}

func newTestCoordinator(b *MockBackend, opts ...Option) *Coordinator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	c := NewCoordinator(b, opts...)
	c.newID = func() string { return "settlement-1" }
	return c
}

func TestFinalize_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Session)
		wantErr error
		wantMsg string
	}{
		{"no customer", func(s *domain.Session) { s.UnbindCustomer() }, domain.ErrNoCustomer, msgNoCustomer},
		{"empty cart", func(s *domain.Session) { s.Cart.Clear() }, domain.ErrEmptyCart, msgEmptyCart},
		{"no payment", func(s *domain.Session) { s.PaymentMethod = "  " }, domain.ErrNoPaymentMethod, msgNoPaymentMethod},
		{"customer checked first", func(s *domain.Session) {
			s.UnbindCustomer()
			s.Cart.Clear()
			s.PaymentMethod = ""
		}, domain.ErrNoCustomer, msgNoCustomer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &MockBackend{}
			c := newTestCoordinator(b)
			sess := readySession(false)
			tt.mutate(sess)
			lines := sess.Cart.Len()

			res, err := c.Finalize(context.Background(), sess)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, domain.IsPrecondition(err))
			require.NotNil(t, res)
			assert.Equal(t, domain.CheckoutStatusIdle, res.Status)
			assert.Equal(t, tt.wantMsg, res.Message)
			assert.Equal(t, 0, b.Calls())
			assert.Equal(t, lines, sess.Cart.Len())
			assert.False(t, sess.PurchaseDone)
		})
	}
}

func TestFinalize_TicketSettled(t *testing.T) {
	b := &MockBackend{TicketResp: &backend.TicketResponse{Message: "Factura enviada a ana@example.com", EmailSent: true}}
	rec := &MockRecorder{}
	pub := &MockPublisher{}
	m := &MockMetrics{}
	c := newTestCoordinator(b, WithRecorder(rec), WithPublisher(pub), WithMetrics(m))
	sess := readySession(false)

	res, err := c.Finalize(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, domain.CheckoutStatusSettled, res.Status)
	assert.Equal(t, "Factura enviada a ana@example.com", res.Message)
	require.NotNil(t, res.Settlement)
	assert.Equal(t, "settlement-1", res.Settlement.ID)
	assert.Equal(t, int64(8000), res.Settlement.Total)
	assert.Equal(t, fixedNow, res.Settlement.SettledAt)
	assert.Equal(t, domain.SettlementKindTicket, res.Settlement.Kind)

	require.NotNil(t, b.LastTicket)
	assert.False(t, b.LastTicket.FacturaElectronica)
	assert.Equal(t, "Efectivo", b.LastTicket.MedioPago)
	assert.Len(t, b.LastTicket.Carrito, 2)
	assert.Equal(t, 0, b.InvoiceCalls)

	assert.True(t, sess.Cart.IsEmpty())
	assert.Empty(t, sess.PaymentMethod)
	assert.True(t, sess.PurchaseDone)
	assert.NotNil(t, sess.Customer)

	assert.Len(t, rec.Recorded, 1)
	assert.Len(t, pub.Published, 1)
	assert.Equal(t, []string{"settlement-1"}, rec.Published)
	assert.Equal(t, []observation{{domain.SettlementKindTicket, domain.CheckoutStatusSettled}}, m.Observed)
}

func TestFinalize_TicketFailureIsDegraded(t *testing.T) {
	b := &MockBackend{TicketErr: &backend.StatusError{StatusCode: 500, Message: "smtp down"}}
	c := newTestCoordinator(b)
	sess := readySession(false)

	res, err := c.Finalize(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, domain.CheckoutStatusDegraded, res.Status)
	assert.Equal(t, msgTicketDegraded, res.Message)
	assert.True(t, res.Status.IsSuccess())
	assert.True(t, sess.Cart.IsEmpty())
	assert.True(t, sess.PurchaseDone)
}

func TestFinalize_TicketMessageOnlyBodySettles(t *testing.T) {
	b := &MockBackend{TicketResp: &backend.TicketResponse{Message: "Compra procesada correctamente"}}
	c := newTestCoordinator(b)
	sess := readySession(false)

	res, err := c.Finalize(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusSettled, res.Status)
	assert.Equal(t, "Compra procesada correctamente", res.Message)
	assert.True(t, sess.Cart.IsEmpty())
}

func TestFinalize_TicketUnsuccessfulBodyIsDegraded(t *testing.T) {
	rejected := false
	b := &MockBackend{TicketResp: &backend.TicketResponse{Success: &rejected, Message: "no se pudo enviar"}}
	c := newTestCoordinator(b)

	res, err := c.Finalize(context.Background(), readySession(false))
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusDegraded, res.Status)
}

func TestFinalize_InvoiceSettled(t *testing.T) {
	b := &MockBackend{InvoiceResp: &backend.InvoiceResponse{InvoiceID: "SETP990000001", CUFE: "a1b2c3", EmailSent: false}}
	c := newTestCoordinator(b)
	sess := readySession(true)

	res, err := c.Finalize(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, domain.CheckoutStatusSettled, res.Status)
	assert.Contains(t, res.Message, "SETP990000001")
	assert.Contains(t, res.Message, "a1b2c3")
	assert.Contains(t, res.Message, msgEmailPending)
	require.NotNil(t, res.Settlement.Tax)
	assert.Equal(t, int64(1520), res.Settlement.Tax.Tax)
	assert.Equal(t, int64(9520), res.Settlement.Tax.Total)

	require.NotNil(t, b.LastInvoice)
	assert.InDelta(t, 0.19, b.LastInvoice.TaxRate, 1e-9)
	assert.Equal(t, domain.DefaultDocumentType, b.LastInvoice.Client.DocumentType)
	assert.Equal(t, domain.CountryCode, b.LastInvoice.Client.Address.CountryCode)
	require.Len(t, b.LastInvoice.Items, 2)
	assert.Equal(t, domain.UnitCodeEach, b.LastInvoice.Items[0].UnitCode)

	assert.True(t, sess.Cart.IsEmpty())
	assert.False(t, sess.WantsEInvoice)
	assert.True(t, sess.PurchaseDone)
}

func TestFinalize_InvoiceEmailWording(t *testing.T) {
	sent := invoiceMessage("1", "x", true)
	pending := invoiceMessage("1", "x", false)
	assert.NotEqual(t, sent, pending)
	assert.Contains(t, sent, msgEmailSent)
}

func TestFinalize_InvoiceFailureLeavesSession(t *testing.T) {
	b := &MockBackend{InvoiceErr: errors.New("connection refused")}
	rec := &MockRecorder{}
	m := &MockMetrics{}
	c := newTestCoordinator(b, WithRecorder(rec), WithMetrics(m))
	sess := readySession(true)

	res, err := c.Finalize(context.Background(), sess)

	assert.ErrorIs(t, err, ErrInvoiceFailed)
	assert.False(t, domain.IsPrecondition(err))
	require.NotNil(t, res)
	assert.Equal(t, domain.CheckoutStatusFailed, res.Status)
	assert.Equal(t, msgFailed, res.Message)
	assert.Nil(t, res.Settlement)

	assert.Equal(t, 2, sess.Cart.Len())
	assert.Equal(t, int64(8000), sess.Cart.Total())
	assert.Equal(t, "Efectivo", sess.PaymentMethod)
	assert.True(t, sess.WantsEInvoice)
	assert.False(t, sess.PurchaseDone)
	assert.Empty(t, rec.Recorded)
	assert.Equal(t, []observation{{domain.SettlementKindInvoice, domain.CheckoutStatusFailed}}, m.Observed)
}

func TestFinalize_SideChannelFailuresDoNotChangeOutcome(t *testing.T) {
	b := &MockBackend{TicketResp: &backend.TicketResponse{}}
	c := newTestCoordinator(b,
		WithRecorder(&MockRecorder{Err: errors.New("mongo down")}),
		WithPublisher(&MockPublisher{Err: errors.New("kafka down")}))

	res, err := c.Finalize(context.Background(), readySession(false))
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusSettled, res.Status)
	assert.Equal(t, msgTicketSettled, res.Message)
}

func TestFinalize_SubmissionSurvivesCancelledRequest(t *testing.T) {
	b := &MockBackend{TicketResp: &backend.TicketResponse{}}
	c := newTestCoordinator(b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := c.Finalize(ctx, readySession(false))
	require.NoError(t, err)
	assert.NoError(t, b.CtxErr)
	assert.Equal(t, domain.CheckoutStatusSettled, res.Status)
}

func TestTransition_Illegal(t *testing.T) {
	s := domain.CheckoutStatusIdle
	err := transition(&s, domain.CheckoutStatusSettled)
	assert.ErrorIs(t, err, IllegalTransitionError)
	assert.Equal(t, domain.CheckoutStatusIdle, s)
}

func TestFinalize_UnpublishedSettlementStaysPending(t *testing.T) {
	b := &MockBackend{TicketResp: &backend.TicketResponse{}}
	rec := &MockRecorder{}
	c := newTestCoordinator(b, WithRecorder(rec), WithPublisher(&MockPublisher{Err: errors.New("kafka down")}))

	_, err := c.Finalize(context.Background(), readySession(false))
	require.NoError(t, err)
	assert.Len(t, rec.Recorded, 1)
	assert.Empty(t, rec.Published)
}

func TestFinalize_NotMarkedWhenRecordFailed(t *testing.T) {
	b := &MockBackend{TicketResp: &backend.TicketResponse{}}
	rec := &MockRecorder{Err: errors.New("mongo down")}
	pub := &MockPublisher{}
	c := newTestCoordinator(b, WithRecorder(rec), WithPublisher(pub))

	_, err := c.Finalize(context.Background(), readySession(false))
	require.NoError(t, err)
	assert.Len(t, pub.Published, 1)
	assert.Empty(t, rec.Published)
}
