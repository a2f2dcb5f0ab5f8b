package backend

import (
	"bytes"
	"encoding/json"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

type RecognitionResponse struct {
	Recognized bool     `json:"recognized"`
	Person     *Person  `json:"person,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// Person is the recognized customer as reported by the recognition endpoint.
type Person struct {
	Name         string     `json:"name"`
	Documento    FlexString `json:"documento"`
	ID           FlexString `json:"id"`
	Email        string     `json:"email"`
	Tipo         string     `json:"tipo"`
	Direccion    string     `json:"direccion"`
	Ciudad       string     `json:"ciudad"`
	Departamento string     `json:"departamento"`
	CodigoPostal FlexString `json:"codigo_postal"`
	Telefono     FlexString `json:"telefono"`
}

// ClientRecord is a customer directory entry.
type ClientRecord struct {
	Name             string         `json:"name"`
	RegistrationName string         `json:"registrationName"`
	DocumentType     FlexString     `json:"documentType"`
	DocumentNumber   FlexString     `json:"documentNumber"`
	Email            string         `json:"email"`
	Telephone        FlexString     `json:"telephone"`
	Address          *ClientAddress `json:"address"`
}

type ClientAddress struct {
	Direccion        string     `json:"direccion"`
	CityName         string     `json:"cityName"`
	CountrySubentity string     `json:"countrySubentity"`
	PostalZone       FlexString `json:"postalZone"`
}

// TicketCustomer is the bound customer as sent on the ticket path.
type TicketCustomer struct {
	Name         string `json:"name"`
	ID           string `json:"id"`
	Documento    string `json:"documento"`
	Tipo         string `json:"tipo"`
	Email        string `json:"email"`
	Direccion    string `json:"direccion"`
	Ciudad       string `json:"ciudad"`
	Departamento string `json:"departamento"`
	CodigoPostal string `json:"codigo_postal"`
	Telefono     string `json:"telefono"`
}

type TicketLine struct {
	ID       int64  `json:"id"`
	Nombre   string `json:"nombre"`
	Precio   int64  `json:"precio"`
	Cantidad int    `json:"cantidad"`
}

type TicketRequest struct {
	Cliente            TicketCustomer `json:"cliente"`
	Carrito            []TicketLine   `json:"carrito"`
	MedioPago          string         `json:"medioPago"`
	FacturaElectronica bool           `json:"facturaElectronica"`
}

// TicketResponse is the ticket endpoint's answer. Success is optional: a plain
// {message} body on 2xx counts as accepted.
type TicketResponse struct {
	Success   *bool  `json:"success,omitempty"`
	Message   string `json:"message"`
	EmailSent bool   `json:"email_sent"`
}

// Rejected reports whether the backend explicitly answered success:false.
func (r *TicketResponse) Rejected() bool {
	return r.Success != nil && !*r.Success
}

type InvoiceRequest struct {
	Client  domain.BillingParty   `json:"client"`
	Items   []domain.BillableItem `json:"items"`
	TaxRate float64               `json:"taxRate"`
}

type InvoiceResponse struct {
	InvoiceID FlexString `json:"invoiceId"`
	CUFE      string     `json:"cufe"`
	EmailSent bool       `json:"email_sent"`
}

type errorBody struct {
	Error string `json:"error"`
}

// NewTicketRequest maps a checkout request onto the ticket payload. Ticket purchases never
// ask for an electronic invoice.
func NewTicketRequest(req *domain.CheckoutRequest) *TicketRequest {
	c := req.Customer
	lines := make([]TicketLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, TicketLine{
			ID:       l.Product.ID,
			Nombre:   l.Product.Name,
			Precio:   l.Product.UnitPrice,
			Cantidad: l.Quantity,
		})
	}
	return &TicketRequest{
		Cliente: TicketCustomer{
			Name:         c.FullName,
			ID:           c.DocumentNumber,
			Documento:    c.DocumentNumber,
			Tipo:         c.DocumentType,
			Email:        c.Email,
			Direccion:    c.Address,
			Ciudad:       c.City,
			Departamento: c.Department,
			CodigoPostal: c.PostalCode,
			Telefono:     c.Phone,
		},
		Carrito:            lines,
		MedioPago:          req.PaymentMethod,
		FacturaElectronica: false,
	}
}

func NewInvoiceRequest(req *domain.CheckoutRequest) *InvoiceRequest {
	return &InvoiceRequest{
		Client:  domain.BillingPartyFor(req.Customer),
		Items:   domain.BillableItemsFor(req.Lines),
		TaxRate: domain.TaxRate.InexactFloat64(),
	}
}
