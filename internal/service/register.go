package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/caja-service/internal/binder"
	"github.com/fjod/go_cart/caja-service/internal/catalog"
	"github.com/fjod/go_cart/caja-service/internal/checkout"
	"github.com/fjod/go_cart/caja-service/internal/domain"
	"github.com/fjod/go_cart/caja-service/internal/journal"
	"github.com/fjod/go_cart/caja-service/internal/session"
)

var ErrRegisterClosed = errors.New("register is shutting down")

var errSessionSave = errors.New("failed to save session")

type Finalizer interface {
	Finalize(ctx context.Context, sess *domain.Session) (*checkout.Result, error)
}

type SettlementJournal interface {
	List(ctx context.Context, terminalID string, limit int) ([]*domain.Settlement, error)
	Get(ctx context.Context, id string) (*domain.Settlement, error)
}

type PollMetrics interface {
	ObservePollTick(outcome string)
	PollerStarted()
	PollerStopped()
}

type Deps struct {
	Catalog     catalog.Provider
	Store       session.Store
	Binder      *binder.Binder
	Recognizer  binder.Recognizer
	Coordinator Finalizer
	Journal     SettlementJournal
}

// Register serves every terminal of the shop. Operations on one terminal are serialized.
type Register struct {
	catalog     catalog.Provider
	store       session.Store
	binder      *binder.Binder
	recognizer  binder.Recognizer
	coordinator Finalizer
	journal     SettlementJournal

	pollInterval time.Duration
	metrics      PollMetrics
	logger       *zap.Logger
	now          func() time.Time

	locksMu sync.Mutex
	locks   map[string]*terminalLock

	pollMu sync.Mutex
	polls  map[string]*pollHandle
	wg     sync.WaitGroup

	baseCtx context.Context
	stop    context.CancelFunc
}

type pollHandle struct {
	cancel context.CancelFunc
}

// terminalLock is dropped from the map once nobody holds or waits on it.
type terminalLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*Register)

func WithPollInterval(d time.Duration) Option {
	return func(r *Register) { r.pollInterval = d }
}

func WithPollMetrics(m PollMetrics) Option {
	return func(r *Register) {
		if m != nil {
			r.metrics = m
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Register) { r.logger = l }
}

func NewRegister(deps Deps, opts ...Option) *Register {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Register{
		catalog:      deps.Catalog,
		store:        deps.Store,
		binder:       deps.Binder,
		recognizer:   deps.Recognizer,
		coordinator:  deps.Coordinator,
		journal:      deps.Journal,
		pollInterval: binder.DefaultPollInterval,
		metrics:      noopPollMetrics{},
		logger:       zap.NewNop(),
		now:          time.Now,
		locks:        make(map[string]*terminalLock),
		polls:        make(map[string]*pollHandle),
		baseCtx:      ctx,
		stop:         cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Register) Catalog(ctx context.Context) ([]domain.Product, error) {
	return r.catalog.All(ctx)
}

// Session returns the terminal's session, creating an empty one on first use.
func (r *Register) Session(ctx context.Context, terminalID string) (*domain.Session, error) {
	unlock := r.lock(terminalID)
	defer unlock()
	return r.load(ctx, terminalID)
}

func (r *Register) AddItem(ctx context.Context, terminalID string, productID int64) (*domain.Session, error) {
	product, err := r.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return r.mutate(ctx, terminalID, func(s *domain.Session) error {
		s.Cart.AddProduct(product)
		return nil
	})
}

func (r *Register) SetQuantity(ctx context.Context, terminalID string, productID int64, quantity int) (*domain.Session, error) {
	return r.mutate(ctx, terminalID, func(s *domain.Session) error {
		s.Cart.SetQuantity(productID, quantity)
		return nil
	})
}

func (r *Register) RemoveItem(ctx context.Context, terminalID string, productID int64) (*domain.Session, error) {
	return r.mutate(ctx, terminalID, func(s *domain.Session) error {
		s.Cart.RemoveLine(productID)
		return nil
	})
}

// SetPayment records the payment choice. An empty method clears it; anything else must be a known method.
func (r *Register) SetPayment(ctx context.Context, terminalID, method string, wantsEInvoice bool) (*domain.Session, error) {
	method = strings.TrimSpace(method)
	if method != "" && !domain.IsKnownPaymentMethod(method) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPaymentMethod, method)
	}
	return r.mutate(ctx, terminalID, func(s *domain.Session) error {
		s.PaymentMethod = method
		s.WantsEInvoice = wantsEInvoice
		return nil
	})
}

func (r *Register) LookupCustomer(ctx context.Context, terminalID, documentNumber string) (*domain.Session, binder.LookupOutcome, error) {
	var outcome binder.LookupOutcome
	sess, err := r.mutate(ctx, terminalID, func(s *domain.Session) error {
		var err error
		outcome, err = r.binder.LookupByDocument(ctx, s, documentNumber)
		return err
	})
	return sess, outcome, err
}

func (r *Register) UpdateCustomer(ctx context.Context, terminalID string, c domain.Customer) (*domain.Session, error) {
	return r.mutate(ctx, terminalID, func(s *domain.Session) error {
		r.binder.UpdateCustomer(s, c)
		return nil
	})
}

// NewCustomer stops recognition and starts over with an empty customer.
func (r *Register) NewCustomer(ctx context.Context, terminalID string) (*domain.Session, error) {
	r.StopRecognition(terminalID)
	return r.mutate(ctx, terminalID, func(s *domain.Session) error {
		r.binder.StartNewCustomer(ctx, s)
		return nil
	})
}

// StartRecognition starts polling for a recognized customer, replacing any poller the terminal had.
// With startEmpty the register opens with an empty customer and does not poll.
func (r *Register) StartRecognition(ctx context.Context, terminalID string, startEmpty bool) (*domain.Session, error) {
	r.StopRecognition(terminalID)

	if startEmpty {
		return r.mutate(ctx, terminalID, func(s *domain.Session) error {
			s.BindCustomer(domain.Customer{})
			return nil
		})
	}

	sess, err := r.Session(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if err := r.startPoller(terminalID); err != nil {
		return nil, err
	}
	return sess, nil
}

func (r *Register) StopRecognition(terminalID string) {
	r.pollMu.Lock()
	h, ok := r.polls[terminalID]
	delete(r.polls, terminalID)
	r.pollMu.Unlock()

	if ok {
		h.cancel()
	}
}

func (r *Register) Recognizing(terminalID string) bool {
	r.pollMu.Lock()
	defer r.pollMu.Unlock()
	_, ok := r.polls[terminalID]
	return ok
}

// Checkout finalizes the terminal's purchase. The returned session reflects the state after checkout.
// Once started, a checkout runs to completion even if ctx is cancelled.
func (r *Register) Checkout(ctx context.Context, terminalID string) (*checkout.Result, *domain.Session, error) {
	ctx = context.WithoutCancel(ctx)
	var result *checkout.Result
	sess, err := r.mutate(ctx, terminalID, func(s *domain.Session) error {
		var err error
		result, err = r.coordinator.Finalize(ctx, s)
		return err
	})
	if errors.Is(err, errSessionSave) && result != nil && result.Status.IsSuccess() {
		// The backend already has the purchase. Report it, and drop the stale cart so it is not sold twice.
		r.logger.Error("purchase settled but session could not be saved",
			zap.String("terminal_id", terminalID),
			zap.String("settlement_id", result.Settlement.ID),
			zap.Error(err))
		if derr := r.store.Delete(ctx, terminalID); derr != nil {
			r.logger.Error("failed to drop stale session after checkout",
				zap.String("terminal_id", terminalID),
				zap.Error(derr))
		}
		return result, sess, nil
	}
	return result, sess, err
}

// Reset tears the terminal's session down.
func (r *Register) Reset(ctx context.Context, terminalID string) error {
	r.StopRecognition(terminalID)

	unlock := r.lock(terminalID)
	defer unlock()
	return r.store.Delete(ctx, terminalID)
}

func (r *Register) Settlements(ctx context.Context, terminalID string, limit int) ([]*domain.Settlement, error) {
	return r.journal.List(ctx, terminalID, limit)
}

// Settlement returns one journal entry. Entries of other terminals are reported as not found.
func (r *Register) Settlement(ctx context.Context, terminalID, id string) (*domain.Settlement, error) {
	s, err := r.journal.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.TerminalID != terminalID {
		return nil, journal.ErrSettlementNotFound
	}
	return s, nil
}

// Close stops every poller and waits for them to exit.
func (r *Register) Close() {
	r.stop()

	r.pollMu.Lock()
	for id, h := range r.polls {
		h.cancel()
		delete(r.polls, id)
	}
	r.pollMu.Unlock()

	r.wg.Wait()
}

func (r *Register) startPoller(terminalID string) error {
	ctx, cancel := context.WithCancel(r.baseCtx)
	h := &pollHandle{cancel: cancel}

	r.pollMu.Lock()
	if r.baseCtx.Err() != nil {
		r.pollMu.Unlock()
		cancel()
		return ErrRegisterClosed
	}
	if prev, ok := r.polls[terminalID]; ok {
		prev.cancel()
	}
	r.polls[terminalID] = h
	r.wg.Add(1)
	r.pollMu.Unlock()

	p := binder.NewRecognitionPoller(r.recognizer,
		binder.WithInterval(r.pollInterval),
		binder.WithPollerLogger(r.logger.With(zap.String("terminal_id", terminalID))),
		binder.WithTickObserver(r.metrics.ObservePollTick))

	r.metrics.PollerStarted()
	go func() {
		defer r.wg.Done()
		defer r.metrics.PollerStopped()
		defer cancel()

		c, err := p.Run(ctx)
		if err != nil {
			return
		}
		r.bindRecognized(terminalID, h, c)
	}()
	return nil
}

// bindRecognized binds c unless the poller that found it was replaced or stopped meanwhile.
func (r *Register) bindRecognized(terminalID string, h *pollHandle, c domain.Customer) {
	r.pollMu.Lock()
	current := r.polls[terminalID] == h
	if current {
		delete(r.polls, terminalID)
	}
	r.pollMu.Unlock()
	if !current {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.baseCtx), 5*time.Second)
	defer cancel()
	_, err := r.mutate(ctx, terminalID, func(s *domain.Session) error {
		r.binder.BindRecognized(s, c)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to bind recognized customer",
			zap.String("terminal_id", terminalID),
			zap.Error(err))
	}
}

// mutate runs fn on the terminal's session under its lock and saves the session when fn succeeds.
func (r *Register) mutate(ctx context.Context, terminalID string, fn func(*domain.Session) error) (*domain.Session, error) {
	unlock := r.lock(terminalID)
	defer unlock()

	sess, err := r.load(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return sess, err
	}

	sess.UpdatedAt = r.now()
	if err := r.store.Set(ctx, sess); err != nil {
		return sess, fmt.Errorf("%w: %w", errSessionSave, err)
	}
	return sess, nil
}

func (r *Register) load(ctx context.Context, terminalID string) (*domain.Session, error) {
	sess, err := r.store.Get(ctx, terminalID)
	if errors.Is(err, session.ErrSessionMiss) {
		return domain.NewSession(terminalID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

func (r *Register) lock(terminalID string) func() {
	r.locksMu.Lock()
	l, ok := r.locks[terminalID]
	if !ok {
		l = &terminalLock{}
		r.locks[terminalID] = l
	}
	l.refs++
	r.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		r.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, terminalID)
		}
		r.locksMu.Unlock()
	}
}

type noopPollMetrics struct{}

func (noopPollMetrics) ObservePollTick(string) {}
func (noopPollMetrics) PollerStarted()         {}
func (noopPollMetrics) PollerStopped()         {}
