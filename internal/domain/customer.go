package domain

import "strings"

// DefaultDocumentType is the DIAN scheme id used when a customer carries no explicit type (cédula de ciudadanía).
const DefaultDocumentType = "13"

// Customer is the canonical customer shape. DocumentNumber is the natural key.
type Customer struct {
	FullName       string `json:"full_name" bson:"full_name"`
	DocumentType   string `json:"document_type" bson:"document_type"`
	DocumentNumber string `json:"document_number" bson:"document_number"`
	Email          string `json:"email" bson:"email"`
	Address        string `json:"address" bson:"address"`
	City           string `json:"city" bson:"city"`
	Department     string `json:"department" bson:"department"`
	PostalCode     string `json:"postal_code" bson:"postal_code"`
	Phone          string `json:"phone" bson:"phone"`
}

// NewCustomerWithDocument is the record used when a document number is unknown to the directory:
// the typed document number (and type) survive, every other field is blank.
func (c Customer) NewCustomerWithDocument(documentNumber string) Customer {
	return Customer{
		DocumentType:   c.DocumentType,
		DocumentNumber: strings.TrimSpace(documentNumber),
	}
}

// DocumentTypeOrDefault returns the document type, falling back to DefaultDocumentType.
func (c Customer) DocumentTypeOrDefault() string {
	if t := strings.TrimSpace(c.DocumentType); t != "" {
		return t
	}
	return DefaultDocumentType
}

func (c Customer) IsEmpty() bool {
	return c == Customer{}
}
