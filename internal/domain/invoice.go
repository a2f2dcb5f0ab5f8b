package domain

import "github.com/shopspring/decimal"

const (
	CountryCode  = "CO"
	UnitCodeEach = "NIU"
	Currency     = "COP"
)

// TaxRate is the VAT rate sent with every electronic invoice.
var TaxRate = decimal.RequireFromString("0.19")

type BillingAddress struct {
	Direccion        string `json:"direccion"`
	CityName         string `json:"cityName"`
	CountrySubentity string `json:"countrySubentity"`
	PostalZone       string `json:"postalZone"`
	CountryCode      string `json:"countryCode"`
}

// BillingParty is the customer as the invoicing backend expects it.
type BillingParty struct {
	Name             string         `json:"name"`
	RegistrationName string         `json:"registrationName"`
	DocumentType     string         `json:"documentType"`
	DocumentNumber   string         `json:"documentNumber"`
	Email            string         `json:"email"`
	Telephone        string         `json:"telephone"`
	Address          BillingAddress `json:"address"`
}

type BillableItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitCode    string `json:"unitCode"`
	Price       int64  `json:"price"`
}

func BillingPartyFor(c Customer) BillingParty {
	return BillingParty{
		Name:             c.FullName,
		RegistrationName: c.FullName,
		DocumentType:     c.DocumentTypeOrDefault(),
		DocumentNumber:   c.DocumentNumber,
		Email:            c.Email,
		Telephone:        c.Phone,
		Address: BillingAddress{
			Direccion:        c.Address,
			CityName:         c.City,
			CountrySubentity: c.Department,
			PostalZone:       c.PostalCode,
			CountryCode:      CountryCode,
		},
	}
}

func BillableItemsFor(lines []CartLine) []BillableItem {
	items := make([]BillableItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, BillableItem{
			Description: line.Product.Name,
			Quantity:    line.Quantity,
			UnitCode:    UnitCodeEach,
			Price:       line.Product.UnitPrice,
		})
	}
	return items
}

// TaxSummary is expressed in whole pesos.
type TaxSummary struct {
	Rate     string `json:"rate" bson:"rate"`
	Subtotal int64  `json:"subtotal" bson:"subtotal"`
	Tax      int64  `json:"tax" bson:"tax"`
	Total    int64  `json:"total" bson:"total"`
}

// ComputeTax applies rate on top of a tax-exclusive subtotal, rounding the tax half-up to whole pesos.
func ComputeTax(subtotal int64, rate decimal.Decimal) TaxSummary {
	base := decimal.NewFromInt(subtotal)
	tax := base.Mul(rate).Round(0)
	return TaxSummary{
		Rate:     rate.String(),
		Subtotal: subtotal,
		Tax:      tax.IntPart(),
		Total:    base.Add(tax).IntPart(),
	}
}
