package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrTaxNotFound = errors.New("tax entry not found")

// Tax is a reference entity mapping a jurisdiction to its tax rate.
type Tax struct {
	State     string
	StateName string
	Rate      decimal.Decimal
}

type TaxRepository interface {
	// Load reads the full tax table, replacing any prior contents.
	Load() error
	// Find looks a tax entry up by state name, case-insensitively.
	Find(stateName string) (Tax, error)
}
