package http

import (
	"github.com/fjod/go_cart/caja-service/internal/checkout"
	"github.com/fjod/go_cart/caja-service/internal/domain"
)

type CartLineDTO struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type SessionResponse struct {
	TerminalID    string           `json:"terminal_id"`
	Lines         []CartLineDTO    `json:"lines"`
	Total         int64            `json:"total"`
	Customer      *domain.Customer `json:"customer"`
	PaymentMethod string           `json:"payment_method"`
	WantsEInvoice bool             `json:"wants_e_invoice"`
	PurchaseDone  bool             `json:"purchase_done"`
	Recognizing   bool             `json:"recognizing"`
}

func newSessionResponse(sess *domain.Session, recognizing bool) SessionResponse {
	lines := sess.Cart.Lines()
	dtos := make([]CartLineDTO, 0, len(lines))
	for _, l := range lines {
		dtos = append(dtos, CartLineDTO{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			UnitPrice: l.Product.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Product.UnitPrice * int64(l.Quantity),
		})
	}

	return SessionResponse{
		TerminalID:    sess.TerminalID,
		Lines:         dtos,
		Total:         sess.Cart.Total(),
		Customer:      sess.Customer,
		PaymentMethod: sess.PaymentMethod,
		WantsEInvoice: sess.WantsEInvoice,
		PurchaseDone:  sess.PurchaseDone,
		Recognizing:   recognizing,
	}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type PaymentRequestDTO struct {
	PaymentMethod string `json:"payment_method"`
	WantsEInvoice bool   `json:"wants_e_invoice"`
}

type PaymentMethodsResponse struct {
	PaymentMethods []string `json:"payment_methods"`
}

type RecognitionRequestDTO struct {
	StartEmpty bool `json:"start_empty"`
}

type LookupRequestDTO struct {
	DocumentNumber string `json:"document_number"`
}

type LookupResponse struct {
	Outcome string          `json:"outcome"`
	Session SessionResponse `json:"session"`
}

type CheckoutResponseDTO struct {
	Status       string             `json:"status"`
	Message      string             `json:"message"`
	SettlementID string             `json:"settlement_id,omitempty"`
	InvoiceID    string             `json:"invoice_id,omitempty"`
	CUFE         string             `json:"cufe,omitempty"`
	EmailSent    bool               `json:"email_sent"`
	Tax          *domain.TaxSummary `json:"tax,omitempty"`
	Session      SessionResponse    `json:"session"`
}

func newCheckoutResponse(res *checkout.Result, sess *domain.Session, recognizing bool) CheckoutResponseDTO {
	dto := CheckoutResponseDTO{
		Status:  string(res.Status),
		Message: res.Message,
		Session: newSessionResponse(sess, recognizing),
	}
	if s := res.Settlement; s != nil {
		dto.SettlementID = s.ID
		dto.InvoiceID = s.InvoiceID
		dto.CUFE = s.CUFE
		dto.EmailSent = s.EmailSent
		dto.Tax = s.Tax
	}
	return dto
}

type SettlementsResponse struct {
	Settlements []*domain.Settlement `json:"settlements"`
}
