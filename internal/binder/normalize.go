package binder

import (
	"strings"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/domain"
)

// FromPerson maps a recognition match onto a Customer. The document falls back to the person id
// and the document type to cédula.
func FromPerson(p *backend.Person) domain.Customer {
	if p == nil {
		return domain.Customer{}
	}
	doc := strings.TrimSpace(p.Documento.String())
	if doc == "" {
		doc = strings.TrimSpace(p.ID.String())
	}
	c := domain.Customer{
		FullName:       strings.TrimSpace(p.Name),
		DocumentType:   strings.TrimSpace(p.Tipo),
		DocumentNumber: doc,
		Email:          strings.TrimSpace(p.Email),
		Address:        strings.TrimSpace(p.Direccion),
		City:           strings.TrimSpace(p.Ciudad),
		Department:     strings.TrimSpace(p.Departamento),
		PostalCode:     strings.TrimSpace(p.CodigoPostal.String()),
		Phone:          strings.TrimSpace(p.Telefono.String()),
	}
	c.DocumentType = c.DocumentTypeOrDefault()
	return c
}

// FromClientRecord maps a directory record onto a Customer. typedDocument is used when the record
// omits its own document number.
func FromClientRecord(rec *backend.ClientRecord, typedDocument string) domain.Customer {
	if rec == nil {
		return domain.Customer{}
	}
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		name = strings.TrimSpace(rec.RegistrationName)
	}
	doc := strings.TrimSpace(rec.DocumentNumber.String())
	if doc == "" {
		doc = strings.TrimSpace(typedDocument)
	}
	c := domain.Customer{
		FullName:       name,
		DocumentType:   strings.TrimSpace(rec.DocumentType.String()),
		DocumentNumber: doc,
		Email:          strings.TrimSpace(rec.Email),
		Phone:          strings.TrimSpace(rec.Telephone.String()),
	}
	if a := rec.Address; a != nil {
		c.Address = strings.TrimSpace(a.Direccion)
		c.City = strings.TrimSpace(a.CityName)
		c.Department = strings.TrimSpace(a.CountrySubentity)
		c.PostalCode = strings.TrimSpace(a.PostalZone.String())
	}
	return c
}
