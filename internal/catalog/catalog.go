package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Provider serves the sellable products.
type Provider interface {
	All(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
}

// Static is a fixed in-memory catalog.
type Static struct {
	products []domain.Product
	byID     map[int64]domain.Product
}

func NewStatic(products []domain.Product) *Static {
	s := &Static{
		products: make([]domain.Product, len(products)),
		byID:     make(map[int64]domain.Product, len(products)),
	}
	copy(s.products, products)
	for _, p := range products {
		s.byID[p.ID] = p
	}
	return s
}

// DefaultProducts is the bakery menu used when no catalog database is configured.
func DefaultProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Pan de bono", UnitPrice: 2000},
		{ID: 2, Name: "Croissant", UnitPrice: 3500},
		{ID: 3, Name: "Galleta de avena", UnitPrice: 2500},
		{ID: 4, Name: "Café americano", UnitPrice: 3000},
		{ID: 5, Name: "Chocolate caliente", UnitPrice: 3500},
		{ID: 6, Name: "Jugo de Naranja", UnitPrice: 4000},
	}
}

func (s *Static) All(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *Static) Get(_ context.Context, id int64) (domain.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return p, nil
}
