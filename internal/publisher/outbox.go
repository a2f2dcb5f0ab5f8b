package publisher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

const (
	DefaultRelayTick  = 10 * time.Second
	DefaultRelayBatch = 100
	// DefaultRelayGrace leaves fresh settlements to the checkout path that just wrote them.
	DefaultRelayGrace = 30 * time.Second
)

// OutboxSource is the part of the settlement journal the relay drains.
type OutboxSource interface {
	Unpublished(ctx context.Context, limit int) ([]*domain.Settlement, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

type SettledPublisher interface {
	PublishSettled(ctx context.Context, s *domain.Settlement) error
}

// OutboxRelay republishes settlements whose event was not delivered at checkout time.
// Delivery is at least once; consumers dedupe on settlement_id.
type OutboxRelay struct {
	source    OutboxSource
	publisher SettledPublisher
	tick      time.Duration
	batch     int
	grace     time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

type RelayOption func(*OutboxRelay)

func WithRelayTick(d time.Duration) RelayOption {
	return func(r *OutboxRelay) {
		if d > 0 {
			r.tick = d
		}
	}
}

func WithRelayBatch(n int) RelayOption {
	return func(r *OutboxRelay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithRelayGrace(d time.Duration) RelayOption {
	return func(r *OutboxRelay) { r.grace = d }
}

func WithRelayLogger(l *zap.Logger) RelayOption {
	return func(r *OutboxRelay) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewOutboxRelay(source OutboxSource, pub SettledPublisher, opts ...RelayOption) *OutboxRelay {
	r := &OutboxRelay{
		source:    source,
		publisher: pub,
		tick:      DefaultRelayTick,
		batch:     DefaultRelayBatch,
		grace:     DefaultRelayGrace,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes on every tick until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Flush(ctx); n > 0 {
				r.logger.Info("relayed pending settlements", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Flush publishes one batch of pending settlements and returns how many were marked published.
// A failed settlement is skipped and retried on the next flush.
func (r *OutboxRelay) Flush(ctx context.Context) int {
	pending, err := r.source.Unpublished(ctx, r.batch)
	if err != nil {
		r.logger.Warn("failed to fetch unpublished settlements", zap.Error(err))
		return 0
	}

	cutoff := r.now().Add(-r.grace)
	relayed := 0
	for _, s := range pending {
		if s.SettledAt.After(cutoff) {
			// oldest first, so the rest are newer still
			break
		}
		if err := r.publisher.PublishSettled(ctx, s); err != nil {
			r.logger.Warn("failed to relay settlement", zap.String("settlement_id", s.ID), zap.Error(err))
			continue
		}
		if err := r.source.MarkPublished(ctx, s.ID, r.now()); err != nil {
			r.logger.Warn("failed to mark settlement published", zap.String("settlement_id", s.ID), zap.Error(err))
			continue
		}
		relayed++
	}
	return relayed
}
