package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrNoOrdersForDate = errors.New("no orders exist for this date")
)

// moneyScale is the scale every derived monetary value is rounded to.
const moneyScale = 2

var oneHundred = decimal.NewFromInt(100)

type Order struct {
	Date                   time.Time
	Number                 int
	CustomerName           string
	State                  string
	TaxRate                decimal.Decimal
	ProductType            string
	Area                   decimal.Decimal
	CostPerSquareFoot      decimal.Decimal
	LaborCostPerSquareFoot decimal.Decimal
}

// MaterialCost is area times the material rate, rounded half-up to cents.
func (o Order) MaterialCost() decimal.Decimal {
	return o.CostPerSquareFoot.Mul(o.Area).Round(moneyScale)
}

// LaborCost is area times the labor rate, rounded half-up to cents.
func (o Order) LaborCost() decimal.Decimal {
	return o.LaborCostPerSquareFoot.Mul(o.Area).Round(moneyScale)
}

// Tax applies the tax rate to the already-rounded material and labor costs.
// Rounding at each step matters: tax is derived from rounded inputs and then
// rounded itself, so totals reproduce the stored records digit for digit.
func (o Order) Tax() decimal.Decimal {
	subtotal := o.MaterialCost().Add(o.LaborCost())
	return subtotal.Mul(o.TaxRate).Div(oneHundred).Round(moneyScale)
}

// Total is material plus labor plus tax. Each term is already at cent scale,
// so no further rounding happens here.
func (o Order) Total() decimal.Decimal {
	return o.MaterialCost().Add(o.LaborCost()).Add(o.Tax())
}

// OrderRepository persists orders grouped into per-date buckets. Every order
// in a bucket carries the bucket's date; order numbers are globally unique
// and drawn from the persisted sequence.
type OrderRepository interface {
	// Append adds one order to its date bucket, creating the bucket if needed.
	Append(order Order) error
	// OrdersForDate loads a whole bucket keyed by order number. Returns
	// ErrNoOrdersForDate when the bucket does not exist.
	OrdersForDate(date time.Time) (map[int]Order, error)
	// RewriteAll replaces a bucket with exactly the given orders.
	RewriteAll(date time.Time, orders []Order) error
	// ExportAll flattens every bucket into the combined backup file,
	// overwriting any previous export.
	ExportAll() error
	// LoadOrderNumber returns the next order number to assign, defaulting
	// to 1 when no counter has been persisted yet.
	LoadOrderNumber() int
	// SaveOrderNumber persists the next order number to assign.
	SaveOrderNumber(number int) error
}
