package domain

// Product is a catalog entry. UnitPrice is in minor currency units (whole COP pesos).
type Product struct {
	ID        int64  `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	UnitPrice int64  `json:"unit_price" bson:"unit_price"`
}
