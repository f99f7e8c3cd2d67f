package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// Product is a reference entity loaded once at startup and never mutated.
type Product struct {
	Type                   string
	CostPerSquareFoot      decimal.Decimal
	LaborCostPerSquareFoot decimal.Decimal
}

type ProductRepository interface {
	// Load reads the full catalog, replacing any prior contents. An empty
	// catalog is not an error; an unreadable source is.
	Load() error
	// Find looks a product up by type, case-insensitively.
	Find(productType string) (Product, error)
	// All returns every loaded product in unspecified order.
	All() []Product
}
