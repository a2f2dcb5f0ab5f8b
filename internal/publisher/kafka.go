package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

const (
	DefaultTopic          = "caja-purchases"
	EventPurchaseSettled  = "purchase_settled"
	eventTypeHeader       = "event_type"
	defaultPublishTimeout = 5 * time.Second
)

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  Writer
	timeout time.Duration
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
	return NewWithWriter(w)
}

func NewWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: defaultPublishTimeout}
}

// PurchaseSettledEvent is the payload published for every settled purchase.
type PurchaseSettledEvent struct {
	SettlementID  string                `json:"settlement_id"`
	TerminalID    string                `json:"terminal_id"`
	Kind          domain.SettlementKind `json:"kind"`
	Status        domain.CheckoutStatus `json:"status"`
	Customer      domain.Customer       `json:"customer"`
	Lines         []domain.CartLine     `json:"lines"`
	Total         int64                 `json:"total"`
	Currency      string                `json:"currency"`
	PaymentMethod string                `json:"payment_method"`
	InvoiceID     string                `json:"invoice_id,omitempty"`
	CUFE          string                `json:"cufe,omitempty"`
	SettledAt     time.Time             `json:"settled_at"`
}

func NewPurchaseSettledEvent(s *domain.Settlement) PurchaseSettledEvent {
	return PurchaseSettledEvent{
		SettlementID:  s.ID,
		TerminalID:    s.TerminalID,
		Kind:          s.Kind,
		Status:        s.Status,
		Customer:      s.Customer,
		Lines:         s.Lines,
		Total:         s.Total,
		Currency:      s.Currency,
		PaymentMethod: s.PaymentMethod,
		InvoiceID:     s.InvoiceID,
		CUFE:          s.CUFE,
		SettledAt:     s.SettledAt,
	}
}

// PublishSettled writes one event keyed by terminal so a terminal's purchases stay ordered.
func (p *KafkaPublisher) PublishSettled(ctx context.Context, s *domain.Settlement) error {
	payload, err := json.Marshal(NewPurchaseSettledEvent(s))
	if err != nil {
		return fmt.Errorf("failed to marshal purchase event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(s.TerminalID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(EventPurchaseSettled)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish purchase event %s: %w", s.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
