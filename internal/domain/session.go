package domain

import "time"

// Session is the state of one register terminal. It only lives as long as the terminal's session.
type Session struct {
	TerminalID    string    `json:"terminal_id"`
	Cart          Cart      `json:"cart"`
	Customer      *Customer `json:"customer,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	WantsEInvoice bool      `json:"wants_e_invoice"`
	PurchaseDone  bool      `json:"purchase_done"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewSession(terminalID string) *Session {
	return &Session{
		TerminalID: terminalID,
		UpdatedAt:  time.Now(),
	}
}

// BindCustomer replaces whatever customer was bound before.
func (s *Session) BindCustomer(c Customer) {
	s.Customer = &c
}

func (s *Session) BoundCustomer() (Customer, bool) {
	if s.Customer == nil {
		return Customer{}, false
	}
	return *s.Customer, true
}

func (s *Session) UnbindCustomer() {
	s.Customer = nil
}

// CompletePurchase is applied once a checkout settled: the cart is emptied, payment
// choices are reset and the terminal waits for the next customer.
func (s *Session) CompletePurchase() {
	s.Cart.Clear()
	s.PaymentMethod = ""
	s.WantsEInvoice = false
	s.PurchaseDone = true
}

// Clone returns a deep copy that shares nothing with s.
func (s *Session) Clone() *Session {
	out := *s
	out.Cart = *RestoreCart(s.Cart.Lines())
	if s.Customer != nil {
		c := *s.Customer
		out.Customer = &c
	}
	return &out
}
