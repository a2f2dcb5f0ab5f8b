package domain

import (
	"errors"
	"strings"
)

var (
	ErrNoCustomer      = errors.New("no customer bound")
	ErrEmptyCart       = errors.New("cart is empty, nothing to checkout")
	ErrNoPaymentMethod = errors.New("no payment method selected")

	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// PaymentMethods is the closed set of payment labels accepted at the register.
var PaymentMethods = []string{
	"Efectivo",
	"Tarjeta de Crédito/Débito",
	"Transferencia",
	"Nequi",
	"Daviplata",
}

func IsKnownPaymentMethod(method string) bool {
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// IsPrecondition reports whether err is one of the checkout precondition failures.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrNoCustomer) || errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrNoPaymentMethod)
}

// CheckoutRequest exists only for the duration of one submission.
type CheckoutRequest struct {
	Customer      Customer
	Lines         []CartLine
	PaymentMethod string
	WantsEInvoice bool
}

// NewCheckoutRequest checks, in order, that a customer is bound, the cart has lines and a payment
// method was chosen.
func NewCheckoutRequest(customer *Customer, cart *Cart, paymentMethod string, wantsEInvoice bool) (*CheckoutRequest, error) {
	if customer == nil {
		return nil, ErrNoCustomer
	}
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return nil, ErrNoPaymentMethod
	}
	return &CheckoutRequest{
		Customer:      *customer,
		Lines:         cart.Lines(),
		PaymentMethod: paymentMethod,
		WantsEInvoice: wantsEInvoice,
	}, nil
}

func (r *CheckoutRequest) Total() int64 {
	var total int64
	for _, line := range r.Lines {
		total += line.Subtotal()
	}
	return total
}
