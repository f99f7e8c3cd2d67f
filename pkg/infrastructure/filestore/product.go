package filestore

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"flooring/pkg/domain/model"
)

// ProductRepository loads the product reference table once and serves lookups
// from memory. The table is never re-read during a session.
type ProductRepository struct {
	path     string
	products map[string]model.Product
}

func NewProductRepository(path string) *ProductRepository {
	return &ProductRepository{path: path, products: make(map[string]model.Product)}
}

func (r *ProductRepository) Load() error {
	f, err := os.Open(r.path)
	if err != nil {
		return errors.Wrap(err, "open product table")
	}
	defer f.Close()

	products := make(map[string]model.Product)
	scanner := bufio.NewScanner(f)
	header := true
	for scanner.Scan() {
		line := scanner.Text()
		if header {
			header = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, Delimiter)
		if len(parts) < 3 {
			return errors.Errorf("malformed product record %q", line)
		}
		cost, err := decimal.NewFromString(parts[1])
		if err != nil {
			return errors.Wrapf(err, "cost per square foot in record %q", line)
		}
		labor, err := decimal.NewFromString(parts[2])
		if err != nil {
			return errors.Wrapf(err, "labor cost per square foot in record %q", line)
		}
		products[strings.ToLower(parts[0])] = model.Product{
			Type:                   parts[0],
			CostPerSquareFoot:      cost,
			LaborCostPerSquareFoot: labor,
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read product table")
	}
	r.products = products
	return nil
}

func (r *ProductRepository) Find(productType string) (model.Product, error) {
	product, ok := r.products[strings.ToLower(productType)]
	if !ok {
		return model.Product{}, model.ErrProductNotFound
	}
	return product, nil
}

func (r *ProductRepository) All() []model.Product {
	all := make([]model.Product, 0, len(r.products))
	for _, product := range r.products {
		all = append(all, product)
	}
	return all
}
