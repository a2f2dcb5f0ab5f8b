package domain

import "time"

type SettlementKind string

const (
	SettlementKindTicket  SettlementKind = "ticket"
	SettlementKindInvoice SettlementKind = "invoice"
)

// Settlement records a purchase that completed, fully or degraded.
type Settlement struct {
	ID            string         `json:"id" bson:"_id"`
	TerminalID    string         `json:"terminal_id" bson:"terminal_id"`
	Kind          SettlementKind `json:"kind" bson:"kind"`
	Status        CheckoutStatus `json:"status" bson:"status"`
	Customer      Customer       `json:"customer" bson:"customer"`
	Lines         []CartLine     `json:"lines" bson:"lines"`
	Total         int64          `json:"total" bson:"total"`
	Currency      string         `json:"currency" bson:"currency"`
	PaymentMethod string         `json:"payment_method" bson:"payment_method"`
	InvoiceID     string         `json:"invoice_id,omitempty" bson:"invoice_id,omitempty"`
	CUFE          string         `json:"cufe,omitempty" bson:"cufe,omitempty"`
	EmailSent     bool           `json:"email_sent" bson:"email_sent"`
	Tax           *TaxSummary    `json:"tax,omitempty" bson:"tax,omitempty"`
	Message       string         `json:"message" bson:"message"`
	SettledAt     time.Time      `json:"settled_at" bson:"settled_at"`
	// PublishedAt is set once the purchase event reached the broker.
	PublishedAt *time.Time `json:"published_at,omitempty" bson:"published_at,omitempty"`
}
