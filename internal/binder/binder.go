package binder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/domain"
)

var ErrLookupFailed = errors.New("customer lookup failed")

// Directory is the customer directory side of the backend.
type Directory interface {
	GetClient(ctx context.Context, documentNumber string) (*backend.ClientRecord, error)
	CreateBlankClient(ctx context.Context) error
}

type LookupOutcome string

const (
	LookupSkipped     LookupOutcome = "skipped"
	LookupFound       LookupOutcome = "found"
	LookupNewCustomer LookupOutcome = "new_customer"
)

// Binder owns the single customer slot of a session.
type Binder struct {
	directory     Directory
	lookups       singleflight.Group
	logger        *zap.Logger
	lookupTimeout time.Duration
	blankTimeout  time.Duration
}

func New(directory Directory, logger *zap.Logger) *Binder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Binder{
		directory:     directory,
		logger:        logger,
		lookupTimeout: 10 * time.Second,
		blankTimeout:  10 * time.Second,
	}
}

// LookupByDocument resolves documentNumber against the directory and binds the result.
// A blank document number is ignored. On failures other than not-found the session is untouched.
func (b *Binder) LookupByDocument(ctx context.Context, sess *domain.Session, documentNumber string) (LookupOutcome, error) {
	doc := strings.TrimSpace(documentNumber)
	if doc == "" {
		return LookupSkipped, nil
	}

	// The shared call outlives any single caller; each caller waits on its own ctx.
	ch := b.lookups.DoChan(doc, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.lookupTimeout)
		defer cancel()
		return b.directory.GetClient(lctx, doc)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrLookupFailed, ctx.Err())
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if errors.Is(err, backend.ErrCustomerNotFound) {
		current, _ := sess.BoundCustomer()
		sess.BindCustomer(current.NewCustomerWithDocument(doc))
		b.logger.Info("document not in directory, binding new customer",
			zap.String("terminal_id", sess.TerminalID))
		return LookupNewCustomer, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	sess.BindCustomer(FromClientRecord(v.(*backend.ClientRecord), doc))
	b.logger.Debug("customer bound from directory",
		zap.String("terminal_id", sess.TerminalID),
		zap.Bool("shared_lookup", shared))
	return LookupFound, nil
}

// StartNewCustomer binds an empty customer and registers a blank client in the background.
func (b *Binder) StartNewCustomer(ctx context.Context, sess *domain.Session) {
	sess.BindCustomer(domain.Customer{})
	sess.PurchaseDone = false

	terminalID := sess.TerminalID
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.blankTimeout)
		defer cancel()
		if err := b.directory.CreateBlankClient(ctx); err != nil {
			b.logger.Warn("blank client creation failed",
				zap.String("terminal_id", terminalID),
				zap.Error(err))
		}
	}()
}

// BindRecognized binds a recognition match.
func (b *Binder) BindRecognized(sess *domain.Session, c domain.Customer) {
	sess.BindCustomer(c)
	b.logger.Info("customer recognized",
		zap.String("terminal_id", sess.TerminalID))
}

// UpdateCustomer replaces the bound customer with manually edited fields.
func (b *Binder) UpdateCustomer(sess *domain.Session, c domain.Customer) {
	sess.BindCustomer(c)
}
