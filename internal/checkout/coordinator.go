package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/domain"
)

var (
	IllegalTransitionError = errors.New("illegal checkout status transition")
	ErrInvoiceFailed       = errors.New("electronic invoice submission failed")
)

type Backend interface {
	SubmitTicket(ctx context.Context, req *backend.TicketRequest) (*backend.TicketResponse, error)
	SubmitInvoice(ctx context.Context, req *backend.InvoiceRequest) (*backend.InvoiceResponse, error)
}

// Recorder stores settled purchases and tracks which of them were announced.
type Recorder interface {
	Record(ctx context.Context, s *domain.Settlement) error
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

// Publisher announces settled purchases.
type Publisher interface {
	PublishSettled(ctx context.Context, s *domain.Settlement) error
}

type Metrics interface {
	ObserveCheckout(kind domain.SettlementKind, status domain.CheckoutStatus, elapsed time.Duration)
}

type Result struct {
	Status     domain.CheckoutStatus
	Message    string
	Settlement *domain.Settlement
}

type Coordinator struct {
	backend   Backend
	recorder  Recorder
	publisher Publisher
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Coordinator)

func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(b Backend, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend: b,
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Finalize validates the session and submits it as a ticket or an electronic invoice.
//
// Precondition failures return a Result in IDLE and the precondition error; nothing is sent.
// A failed invoice returns FAILED with an error wrapping ErrInvoiceFailed and leaves sess untouched.
// A failed ticket is DEGRADED and still settles. On SETTLED or DEGRADED the purchase is completed on
// sess. Submission is detached from ctx cancellation.
func (c *Coordinator) Finalize(ctx context.Context, sess *domain.Session) (*Result, error) {
	status := domain.CheckoutStatusIdle
	if err := transition(&status, domain.CheckoutStatusValidating); err != nil {
		return nil, err
	}

	req, err := domain.NewCheckoutRequest(sess.Customer, &sess.Cart, sess.PaymentMethod, sess.WantsEInvoice)
	if err != nil {
		_ = transition(&status, domain.CheckoutStatusIdle)
		return &Result{Status: status, Message: preconditionMessage(err)}, err
	}

	if err := transition(&status, domain.CheckoutStatusSubmitting); err != nil {
		return nil, err
	}

	submitCtx := context.WithoutCancel(ctx)
	started := c.now()

	var settlement *domain.Settlement
	if req.WantsEInvoice {
		settlement, err = c.submitInvoice(submitCtx, req)
	} else {
		settlement = c.submitTicket(submitCtx, req)
	}

	kind := domain.SettlementKindTicket
	if req.WantsEInvoice {
		kind = domain.SettlementKindInvoice
	}

	if err != nil {
		_ = transition(&status, domain.CheckoutStatusFailed)
		c.observe(kind, status, started)
		c.logger.Error("checkout failed",
			zap.String("terminal_id", sess.TerminalID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return &Result{Status: status, Message: msgFailed}, fmt.Errorf("%w: %w", ErrInvoiceFailed, err)
	}

	if err := transition(&status, settlement.Status); err != nil {
		return nil, err
	}
	c.observe(kind, status, started)

	settlement.ID = c.newID()
	settlement.TerminalID = sess.TerminalID
	settlement.SettledAt = c.now()
	sess.CompletePurchase()

	c.afterSettle(submitCtx, settlement)

	c.logger.Info("checkout settled",
		zap.String("terminal_id", sess.TerminalID),
		zap.String("settlement_id", settlement.ID),
		zap.String("kind", string(kind)),
		zap.String("status", status.String()),
		zap.Int64("total", settlement.Total))

	return &Result{Status: status, Message: settlement.Message, Settlement: settlement}, nil
}

func (c *Coordinator) submitInvoice(ctx context.Context, req *domain.CheckoutRequest) (*domain.Settlement, error) {
	resp, err := c.backend.SubmitInvoice(ctx, backend.NewInvoiceRequest(req))
	if err != nil {
		return nil, err
	}

	tax := domain.ComputeTax(req.Total(), domain.TaxRate)
	s := newSettlement(req, domain.SettlementKindInvoice, domain.CheckoutStatusSettled)
	s.InvoiceID = resp.InvoiceID.String()
	s.CUFE = resp.CUFE
	s.EmailSent = resp.EmailSent
	s.Tax = &tax
	s.Message = invoiceMessage(s.InvoiceID, s.CUFE, s.EmailSent)
	return s, nil
}

// submitTicket never fails: a ticket whose notification could not be delivered still counts as sold.
func (c *Coordinator) submitTicket(ctx context.Context, req *domain.CheckoutRequest) *domain.Settlement {
	resp, err := c.backend.SubmitTicket(ctx, backend.NewTicketRequest(req))
	if err != nil {
		c.logger.Warn("ticket notification failed, purchase settled as degraded", zap.Error(err))
		s := newSettlement(req, domain.SettlementKindTicket, domain.CheckoutStatusDegraded)
		s.Message = msgTicketDegraded
		return s
	}
	if resp.Rejected() {
		c.logger.Warn("ticket backend reported failure, purchase settled as degraded",
			zap.String("backend_message", resp.Message))
		s := newSettlement(req, domain.SettlementKindTicket, domain.CheckoutStatusDegraded)
		s.Message = msgTicketDegraded
		return s
	}

	s := newSettlement(req, domain.SettlementKindTicket, domain.CheckoutStatusSettled)
	s.EmailSent = resp.EmailSent
	s.Message = ticketMessage(resp.Message)
	return s
}

// afterSettle records and publishes a settlement. Failures are logged and never change the outcome.
// A recorded settlement whose event could not be published stays pending for the outbox relay.
func (c *Coordinator) afterSettle(ctx context.Context, s *domain.Settlement) {
	recorded := false
	if c.recorder != nil {
		if err := c.recorder.Record(ctx, s); err != nil {
			c.logger.Warn("failed to record settlement", zap.String("settlement_id", s.ID), zap.Error(err))
		} else {
			recorded = true
		}
	}
	if c.publisher == nil {
		return
	}

	if err := c.publisher.PublishSettled(ctx, s); err != nil {
		c.logger.Warn("failed to publish settlement", zap.String("settlement_id", s.ID), zap.Error(err))
		return
	}
	if recorded {
		if err := c.recorder.MarkPublished(ctx, s.ID, c.now()); err != nil {
			c.logger.Warn("failed to mark settlement published", zap.String("settlement_id", s.ID), zap.Error(err))
		}
	}
}

func (c *Coordinator) observe(kind domain.SettlementKind, status domain.CheckoutStatus, started time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveCheckout(kind, status, c.now().Sub(started))
	}
}

func newSettlement(req *domain.CheckoutRequest, kind domain.SettlementKind, status domain.CheckoutStatus) *domain.Settlement {
	return &domain.Settlement{
		Kind:          kind,
		Status:        status,
		Customer:      req.Customer,
		Lines:         req.Lines,
		Total:         req.Total(),
		Currency:      domain.Currency,
		PaymentMethod: req.PaymentMethod,
	}
}

func transition(status *domain.CheckoutStatus, to domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(*status, to) {
		return fmt.Errorf("%w: %s -> %s", IllegalTransitionError, *status, to)
	}
	*status = to
	return nil
}
