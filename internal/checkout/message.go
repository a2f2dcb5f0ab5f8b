package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

// Operator-facing messages shown by the register UI.
const (
	msgNoCustomer      = "Primero se debe detectar un cliente."
	msgEmptyCart       = "El carrito está vacío, agrega productos antes de finalizar."
	msgNoPaymentMethod = "Selecciona un método de pago."
	msgFailed          = "Error al procesar la compra"
	msgTicketSettled   = "Compra registrada exitosamente."
	msgTicketDegraded  = "Compra registrada, pero no se pudo enviar el comprobante al cliente."
	msgEmailSent       = "Notificación por correo enviada exitosamente."
	msgEmailPending    = "Notificación por correo en cola."
)

func preconditionMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoCustomer):
		return msgNoCustomer
	case errors.Is(err, domain.ErrEmptyCart):
		return msgEmptyCart
	case errors.Is(err, domain.ErrNoPaymentMethod):
		return msgNoPaymentMethod
	}
	return msgFailed
}

func invoiceMessage(invoiceID, cufe string, emailSent bool) string {
	email := msgEmailPending
	if emailSent {
		email = msgEmailSent
	}
	return fmt.Sprintf("Factura electrónica %s generada. CUFE: %s. %s", invoiceID, cufe, email)
}

func ticketMessage(backendMessage string) string {
	if backendMessage != "" {
		return backendMessage
	}
	return msgTicketSettled
}
