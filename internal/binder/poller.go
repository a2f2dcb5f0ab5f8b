package binder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/domain"
)

const DefaultPollInterval = 5 * time.Second

// Tick outcomes reported to the observer.
const (
	TickError         = "error"
	TickNotRecognized = "not_recognized"
	TickMatched       = "matched"
)

type Recognizer interface {
	LastRecognized(ctx context.Context) (*backend.RecognitionResponse, error)
}

type RecognitionPoller struct {
	recognizer Recognizer
	interval   time.Duration
	logger     *zap.Logger
	observe    func(outcome string)
}

type PollerOption func(*RecognitionPoller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *RecognitionPoller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithPollerLogger(l *zap.Logger) PollerOption {
	return func(p *RecognitionPoller) { p.logger = l }
}

// WithTickObserver is called once per tick with one of the Tick* outcomes.
func WithTickObserver(fn func(outcome string)) PollerOption {
	return func(p *RecognitionPoller) { p.observe = fn }
}

func NewRecognitionPoller(r Recognizer, opts ...PollerOption) *RecognitionPoller {
	p := &RecognitionPoller{
		recognizer: r,
		interval:   DefaultPollInterval,
		logger:     zap.NewNop(),
		observe:    func(string) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until the first positive match or until ctx is done. Failed ticks are logged and
// skipped. It returns ctx.Err() when cancelled before a match.
func (p *RecognitionPoller) Run(ctx context.Context) (domain.Customer, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if c, ok := p.tick(ctx); ok {
				return c, nil
			}
		case <-ctx.Done():
			return domain.Customer{}, ctx.Err()
		}
	}
}

func (p *RecognitionPoller) tick(ctx context.Context) (domain.Customer, bool) {
	resp, err := p.recognizer.LastRecognized(ctx)
	if ctx.Err() != nil {
		return domain.Customer{}, false
	}
	if err != nil {
		p.observe(TickError)
		p.logger.Debug("recognition poll failed", zap.Error(err))
		return domain.Customer{}, false
	}
	if !resp.Recognized || resp.Person == nil {
		p.observe(TickNotRecognized)
		return domain.Customer{}, false
	}

	p.observe(TickMatched)
	return FromPerson(resp.Person), true
}
