package tests

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flooring/pkg/domain/model"
	"flooring/pkg/domain/service"
)

func setup(t *testing.T) (service.OrderService, *mockOrderRepository) {
	t.Helper()
	repo := &mockOrderRepository{
		buckets:    make(map[string]map[int]model.Order),
		nextNumber: 1,
	}
	svc := service.NewOrderService(repo, newMockProducts(), newMockTaxes())
	require.NoError(t, svc.LoadData())
	return svc, repo
}

func TestLoadData(t *testing.T) {
	repo := &mockOrderRepository{buckets: make(map[string]map[int]model.Order), nextNumber: 7}

	t.Run("Taxes load failure is fatal", func(t *testing.T) {
		taxes := newMockTaxes()
		taxes.loadErr = errors.New("disk on fire")
		svc := service.NewOrderService(repo, newMockProducts(), taxes)
		assert.ErrorIs(t, svc.LoadData(), taxes.loadErr)
	})

	t.Run("Products load failure is fatal", func(t *testing.T) {
		products := newMockProducts()
		products.loadErr = errors.New("disk on fire")
		svc := service.NewOrderService(repo, products, newMockTaxes())
		assert.ErrorIs(t, svc.LoadData(), products.loadErr)
	})

	t.Run("Counter resumes from the persisted value", func(t *testing.T) {
		svc := service.NewOrderService(repo, newMockProducts(), newMockTaxes())
		require.NoError(t, svc.LoadData())
		order := carpetOrder(t, svc, "Ada")
		require.NoError(t, svc.SaveOrder(&order))
		assert.Equal(t, 7, order.Number)
	})
}

func TestCreateOrder(t *testing.T) {
	svc, _ := setup(t)

	order := carpetOrder(t, svc, "Ada Lovelace")

	assert.Equal(t, 0, order.Number, "no number before save")
	assert.Equal(t, "Texas", order.State)
	assert.Equal(t, "Carpet", order.ProductType)
	assertDecimal(t, "1125.00", order.MaterialCost())
	assertDecimal(t, "1050.00", order.LaborCost())
	assertDecimal(t, "135.94", order.Tax())
	assertDecimal(t, "2310.94", order.Total())
}

func TestTotalIsSumOfParts(t *testing.T) {
	svc, _ := setup(t)
	areas := []string{"100.00", "123.45", "317.33", "999.99"}
	for _, raw := range areas {
		area, err := svc.ValidateArea(raw)
		require.NoError(t, err)
		tax, _ := svc.ValidateState("Washington")
		product, _ := svc.ValidateProductType("Tile")
		order := svc.CreateOrder(futureDate(), "Grace", tax, product, area)

		sum := order.MaterialCost().Add(order.LaborCost()).Add(order.Tax())
		assert.True(t, order.Total().Equal(sum), "area %s: total %s != sum %s", raw, order.Total(), sum)
	}
}

func TestSaveOrderAssignsSequentialNumbers(t *testing.T) {
	svc, repo := setup(t)
	repo.nextNumber = 41
	require.NoError(t, svc.LoadData())

	var numbers []int
	for _, name := range []string{"Ada", "Grace", "Edsger"} {
		order := carpetOrder(t, svc, name)
		require.NoError(t, svc.SaveOrder(&order))
		numbers = append(numbers, order.Number)
	}
	assert.Equal(t, []int{41, 42, 43}, numbers)

	require.NoError(t, svc.SaveOrderNumber())
	assert.Equal(t, 44, repo.savedNumber)
}

func TestOrders(t *testing.T) {
	svc, _ := setup(t)
	date := futureDate()

	t.Run("Missing bucket", func(t *testing.T) {
		_, err := svc.Orders(date)
		assert.ErrorIs(t, err, model.ErrNoOrdersForDate)
	})

	t.Run("Sorted by order number", func(t *testing.T) {
		saveOrders(t, svc, date, "Charlie", "Alice", "Bob")

		orders, err := svc.Orders(date)
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.True(t, orders[0].Number < orders[1].Number && orders[1].Number < orders[2].Number)
	})
}

func TestOrderLookup(t *testing.T) {
	svc, _ := setup(t)
	date := futureDate()
	saveOrders(t, svc, date, "Alice")

	order, err := svc.Order(date, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", order.CustomerName)

	_, err = svc.Order(date, 99)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	_, err = svc.Order(date.AddDate(0, 0, 1), 1)
	assert.ErrorIs(t, err, model.ErrNoOrdersForDate)
}

func TestUpdateOrderReturnsNewValue(t *testing.T) {
	svc, _ := setup(t)
	original := carpetOrder(t, svc, "Alice")

	tax, _ := svc.ValidateState("Washington")
	product, _ := svc.ValidateProductType("Tile")
	area, _ := svc.ValidateArea("200")
	updated := svc.UpdateOrder(original, "Alice B.", tax, product, area)

	assert.Equal(t, "Alice", original.CustomerName)
	assert.Equal(t, "Carpet", original.ProductType)
	assert.Equal(t, "Alice B.", updated.CustomerName)
	assert.Equal(t, "Tile", updated.ProductType)
	assert.Equal(t, "Washington", updated.State)
	assertDecimal(t, "700.00", updated.MaterialCost())
	assertDecimal(t, "830.00", updated.LaborCost())
}

func TestEditOrder(t *testing.T) {
	svc, _ := setup(t)
	date := futureDate()
	saveOrders(t, svc, date, "Alice", "Bob", "Carol")

	t.Run("Missing number", func(t *testing.T) {
		err := svc.EditOrder(date, 99, carpetOrder(t, svc, "Nobody"))
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Missing bucket", func(t *testing.T) {
		err := svc.EditOrder(date.AddDate(0, 0, 1), 1, carpetOrder(t, svc, "Nobody"))
		assert.ErrorIs(t, err, model.ErrNoOrdersForDate)
	})

	t.Run("Replaces exactly one order", func(t *testing.T) {
		target, err := svc.Order(date, 3)
		require.NoError(t, err)

		tax, _ := svc.ValidateState("Kentucky")
		product, _ := svc.ValidateProductType("Wood")
		area, _ := svc.ValidateArea("350")
		updated := svc.UpdateOrder(target, "Carol Danvers", tax, product, area)
		require.NoError(t, svc.EditOrder(date, 3, updated))

		orders, err := svc.Orders(date)
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, "Alice", orders[0].CustomerName)
		assert.Equal(t, "Bob", orders[1].CustomerName)
		assert.Equal(t, "Carol Danvers", orders[2].CustomerName)
		assert.Equal(t, "Wood", orders[2].ProductType)
		assert.Equal(t, 3, orders[2].Number)
	})
}

func TestDeleteOrder(t *testing.T) {
	svc, _ := setup(t)
	date := futureDate()
	saveOrders(t, svc, date, "Alice", "Bob")

	t.Run("Missing bucket", func(t *testing.T) {
		_, err := svc.DeleteOrder(date.AddDate(0, 0, 1), 1)
		assert.ErrorIs(t, err, model.ErrNoOrdersForDate)
	})

	t.Run("Missing number leaves bucket unchanged", func(t *testing.T) {
		_, err := svc.DeleteOrder(date, 99)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)

		orders, err := svc.Orders(date)
		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("Removes the order", func(t *testing.T) {
		removed, err := svc.DeleteOrder(date, 1)
		require.NoError(t, err)
		assert.Equal(t, "Alice", removed.CustomerName)

		orders, err := svc.Orders(date)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "Bob", orders[0].CustomerName)
	})
}

func TestExportOrders(t *testing.T) {
	svc, repo := setup(t)
	require.NoError(t, svc.ExportOrders())
	assert.Equal(t, 1, repo.exportCalls)
}

func TestValidateDate(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.ValidateDate("not a date")
	assert.ErrorIs(t, err, service.ErrInvalidDate)

	_, err = svc.ValidateDate("01-01-2001")
	assert.ErrorIs(t, err, service.ErrInvalidDate)

	raw := time.Now().AddDate(0, 0, 7).Format("01-02-2006")
	date, err := svc.ValidateDate(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, date.Format("01-02-2006"))

	// ParseDate accepts past dates for addressing existing orders.
	_, err = svc.ParseDate("01-01-2001")
	assert.NoError(t, err)
}

func TestValidateName(t *testing.T) {
	svc, _ := setup(t)

	assert.NoError(t, svc.ValidateName("Acme, Inc. 2"))
	assert.ErrorIs(t, svc.ValidateName(""), service.ErrInvalidName)
	assert.ErrorIs(t, svc.ValidateName("   "), service.ErrInvalidName)
	assert.ErrorIs(t, svc.ValidateName("Bob!"), service.ErrInvalidName)
}

func TestValidateState(t *testing.T) {
	svc, _ := setup(t)

	tax, err := svc.ValidateState("tExAs")
	require.NoError(t, err)
	assert.Equal(t, "Texas", tax.StateName)
	assertDecimal(t, "6.25", tax.Rate)

	_, err = svc.ValidateState("Atlantis")
	assert.ErrorIs(t, err, service.ErrUnknownState)
}

func TestValidateProductType(t *testing.T) {
	svc, _ := setup(t)

	product, err := svc.ValidateProductType("carpet")
	require.NoError(t, err)
	assert.Equal(t, "Carpet", product.Type)

	_, err = svc.ValidateProductType("Marble")
	assert.ErrorIs(t, err, service.ErrUnknownProduct)
}

func TestValidateArea(t *testing.T) {
	svc, _ := setup(t)

	area, err := svc.ValidateArea("250.505")
	require.NoError(t, err)
	assertDecimal(t, "250.51", area)

	area, err = svc.ValidateArea("100")
	require.NoError(t, err)
	assertDecimal(t, "100.00", area)

	_, err = svc.ValidateArea("99.99")
	assert.ErrorIs(t, err, service.ErrInvalidArea)

	_, err = svc.ValidateArea("huge")
	assert.ErrorIs(t, err, service.ErrInvalidArea)
}

// helpers

func futureDate() time.Time {
	now := time.Now().AddDate(0, 1, 0)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func carpetOrder(t *testing.T, svc service.OrderService, name string) model.Order {
	t.Helper()
	tax, err := svc.ValidateState("Texas")
	require.NoError(t, err)
	product, err := svc.ValidateProductType("Carpet")
	require.NoError(t, err)
	area, err := svc.ValidateArea("500.00")
	require.NoError(t, err)
	return svc.CreateOrder(futureDate(), name, tax, product, area)
}

func saveOrders(t *testing.T, svc service.OrderService, date time.Time, names ...string) {
	t.Helper()
	for _, name := range names {
		tax, _ := svc.ValidateState("Texas")
		product, _ := svc.ValidateProductType("Carpet")
		area, _ := svc.ValidateArea("500.00")
		order := svc.CreateOrder(date, name, tax, product, area)
		require.NoError(t, svc.SaveOrder(&order))
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

// mocks

type mockOrderRepository struct {
	buckets     map[string]map[int]model.Order
	nextNumber  int
	savedNumber int
	exportCalls int
}

func bucketKey(date time.Time) string { return date.Format("01022006") }

func (m *mockOrderRepository) Append(order model.Order) error {
	key := bucketKey(order.Date)
	if m.buckets[key] == nil {
		m.buckets[key] = make(map[int]model.Order)
	}
	m.buckets[key][order.Number] = order
	return nil
}

func (m *mockOrderRepository) OrdersForDate(date time.Time) (map[int]model.Order, error) {
	bucket, ok := m.buckets[bucketKey(date)]
	if !ok {
		return nil, model.ErrNoOrdersForDate
	}
	orders := make(map[int]model.Order, len(bucket))
	for number, order := range bucket {
		orders[number] = order
	}
	return orders, nil
}

func (m *mockOrderRepository) RewriteAll(date time.Time, orders []model.Order) error {
	bucket := make(map[int]model.Order, len(orders))
	for _, order := range orders {
		bucket[order.Number] = order
	}
	m.buckets[bucketKey(date)] = bucket
	return nil
}

func (m *mockOrderRepository) ExportAll() error {
	m.exportCalls++
	return nil
}

func (m *mockOrderRepository) LoadOrderNumber() int { return m.nextNumber }

func (m *mockOrderRepository) SaveOrderNumber(number int) error {
	m.savedNumber = number
	return nil
}

type mockProductRepository struct {
	products map[string]model.Product
	loadErr  error
}

func newMockProducts() *mockProductRepository {
	return &mockProductRepository{products: map[string]model.Product{
		"carpet": {Type: "Carpet", CostPerSquareFoot: dec("2.25"), LaborCostPerSquareFoot: dec("2.10")},
		"tile":   {Type: "Tile", CostPerSquareFoot: dec("3.50"), LaborCostPerSquareFoot: dec("4.15")},
		"wood":   {Type: "Wood", CostPerSquareFoot: dec("5.15"), LaborCostPerSquareFoot: dec("4.75")},
	}}
}

func (m *mockProductRepository) Load() error { return m.loadErr }

func (m *mockProductRepository) Find(productType string) (model.Product, error) {
	product, ok := m.products[strings.ToLower(productType)]
	if !ok {
		return model.Product{}, model.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) All() []model.Product {
	all := make([]model.Product, 0, len(m.products))
	for _, product := range m.products {
		all = append(all, product)
	}
	return all
}

type mockTaxRepository struct {
	taxes   map[string]model.Tax
	loadErr error
}

func newMockTaxes() *mockTaxRepository {
	return &mockTaxRepository{taxes: map[string]model.Tax{
		"texas":      {State: "TX", StateName: "Texas", Rate: dec("6.25")},
		"washington": {State: "WA", StateName: "Washington", Rate: dec("9.25")},
		"kentucky":   {State: "KY", StateName: "Kentucky", Rate: dec("6.00")},
	}}
}

func (m *mockTaxRepository) Load() error { return m.loadErr }

func (m *mockTaxRepository) Find(stateName string) (model.Tax, error) {
	tax, ok := m.taxes[strings.ToLower(stateName)]
	if !ok {
		return model.Tax{}, model.ErrTaxNotFound
	}
	return tax, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
