package service

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"flooring/pkg/domain/model"
)

var (
	ErrInvalidDate    = errors.New("date must be in the future, in the format MM-DD-YYYY")
	ErrInvalidName    = errors.New("name may not be blank and is limited to letters, numbers, periods and commas")
	ErrUnknownState   = errors.New("invalid state name")
	ErrUnknownProduct = errors.New("invalid product type")
	ErrInvalidArea    = errors.New("area must be a number of at least 100 square feet")
)

const displayDateFormat = "01-02-2006"

var (
	namePattern = regexp.MustCompile(`^[A-Za-z0-9., ]+$`)
	minArea     = decimal.NewFromInt(100)
)

type OrderService interface {
	LoadData() error

	ValidateDate(raw string) (time.Time, error)
	ParseDate(raw string) (time.Time, error)
	ValidateName(name string) error
	ValidateState(stateName string) (model.Tax, error)
	ValidateProductType(productType string) (model.Product, error)
	ValidateArea(raw string) (decimal.Decimal, error)

	CreateOrder(date time.Time, customerName string, tax model.Tax, product model.Product, area decimal.Decimal) model.Order
	SaveOrder(order *model.Order) error
	Orders(date time.Time) ([]model.Order, error)
	Order(date time.Time, number int) (model.Order, error)
	UpdateOrder(order model.Order, customerName string, tax model.Tax, product model.Product, area decimal.Decimal) model.Order
	EditOrder(date time.Time, number int, updated model.Order) error
	DeleteOrder(date time.Time, number int) (model.Order, error)
	ExportOrders() error

	Products() []model.Product
	SaveOrderNumber() error
}

func NewOrderService(orders model.OrderRepository, products model.ProductRepository, taxes model.TaxRepository) OrderService {
	return &orderService{orders: orders, products: products, taxes: taxes}
}

type orderService struct {
	orders   model.OrderRepository
	products model.ProductRepository
	taxes    model.TaxRepository

	// nextNumber is the next order number to assign; numbers are never
	// reused even across deletions.
	nextNumber int
}

// LoadData loads the tax table, the product catalog and the order-number
// counter. A failure here leaves the service unusable for order creation.
func (s *orderService) LoadData() error {
	if err := s.taxes.Load(); err != nil {
		return err
	}
	if err := s.products.Load(); err != nil {
		return err
	}
	s.nextNumber = s.orders.LoadOrderNumber()
	return nil
}

// ValidateDate parses raw as MM-DD-YYYY and rejects dates before today.
func (s *orderService) ValidateDate(raw string) (time.Time, error) {
	date, err := time.Parse(displayDateFormat, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// ParseDate parses raw as MM-DD-YYYY without the future-date restriction.
// Used when addressing existing orders.
func (s *orderService) ParseDate(raw string) (time.Time, error) {
	date, err := time.Parse(displayDateFormat, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func (s *orderService) ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

func (s *orderService) ValidateState(stateName string) (model.Tax, error) {
	tax, err := s.taxes.Find(stateName)
	if err != nil {
		return model.Tax{}, ErrUnknownState
	}
	return tax, nil
}

func (s *orderService) ValidateProductType(productType string) (model.Product, error) {
	product, err := s.products.Find(productType)
	if err != nil {
		return model.Product{}, ErrUnknownProduct
	}
	return product, nil
}

func (s *orderService) ValidateArea(raw string) (decimal.Decimal, error) {
	area, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || area.LessThan(minArea) {
		return decimal.Decimal{}, ErrInvalidArea
	}
	return area.Round(2), nil
}

// CreateOrder combines pre-validated inputs into an order with no number
// assigned yet. Nothing is persisted until SaveOrder.
func (s *orderService) CreateOrder(date time.Time, customerName string, tax model.Tax, product model.Product, area decimal.Decimal) model.Order {
	return model.Order{
		Date:                   date,
		CustomerName:           customerName,
		State:                  tax.StateName,
		TaxRate:                tax.Rate,
		ProductType:            product.Type,
		Area:                   area,
		CostPerSquareFoot:      product.CostPerSquareFoot,
		LaborCostPerSquareFoot: product.LaborCostPerSquareFoot,
	}
}

// SaveOrder assigns the next order number and appends the order to its date
// bucket. The number is consumed even if a later save fails.
func (s *orderService) SaveOrder(order *model.Order) error {
	order.Number = s.nextOrderNumber()
	return s.orders.Append(*order)
}

// Orders returns a date bucket's contents sorted by order number.
func (s *orderService) Orders(date time.Time) ([]model.Order, error) {
	byNumber, err := s.orders.OrdersForDate(date)
	if err != nil {
		return nil, err
	}
	return sortedOrders(byNumber), nil
}

// Order fetches a single order. Returns model.ErrOrderNotFound when the
// bucket exists but the number does not.
func (s *orderService) Order(date time.Time, number int) (model.Order, error) {
	byNumber, err := s.orders.OrdersForDate(date)
	if err != nil {
		return model.Order{}, err
	}
	order, ok := byNumber[number]
	if !ok {
		return model.Order{}, model.ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrder returns a copy of order with the replaceable fields overwritten.
// The input order is left untouched; derived costs recompute from the new
// fields on demand.
func (s *orderService) UpdateOrder(order model.Order, customerName string, tax model.Tax, product model.Product, area decimal.Decimal) model.Order {
	order.CustomerName = customerName
	order.State = tax.StateName
	order.TaxRate = tax.Rate
	order.ProductType = product.Type
	order.Area = area
	order.CostPerSquareFoot = product.CostPerSquareFoot
	order.LaborCostPerSquareFoot = product.LaborCostPerSquareFoot
	return order
}

// EditOrder replaces the order at the given number and rewrites the bucket.
func (s *orderService) EditOrder(date time.Time, number int, updated model.Order) error {
	byNumber, err := s.orders.OrdersForDate(date)
	if err != nil {
		return err
	}
	if _, ok := byNumber[number]; !ok {
		return model.ErrOrderNotFound
	}
	updated.Date = date
	updated.Number = number
	byNumber[number] = updated
	return s.orders.RewriteAll(date, sortedOrders(byNumber))
}

// DeleteOrder removes the order at the given number, rewrites the bucket and
// returns the removed order. A missing number leaves the bucket untouched.
func (s *orderService) DeleteOrder(date time.Time, number int) (model.Order, error) {
	byNumber, err := s.orders.OrdersForDate(date)
	if err != nil {
		return model.Order{}, err
	}
	order, ok := byNumber[number]
	if !ok {
		return model.Order{}, model.ErrOrderNotFound
	}
	delete(byNumber, number)
	if err := s.orders.RewriteAll(date, sortedOrders(byNumber)); err != nil {
		return model.Order{}, err
	}
	return order, nil
}

func (s *orderService) ExportOrders() error {
	return s.orders.ExportAll()
}

func (s *orderService) Products() []model.Product {
	return s.products.All()
}

// SaveOrderNumber persists the counter so the next session continues the
// sequence. Called on clean shutdown.
func (s *orderService) SaveOrderNumber() error {
	return s.orders.SaveOrderNumber(s.nextNumber)
}

func (s *orderService) nextOrderNumber() int {
	number := s.nextNumber
	s.nextNumber++
	return number
}

func sortedOrders(byNumber map[int]model.Order) []model.Order {
	orders := make([]model.Order, 0, len(byNumber))
	for _, order := range byNumber {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Number < orders[j].Number })
	return orders
}
