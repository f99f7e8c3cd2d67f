package filestore

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"flooring/pkg/domain/model"
)

// TaxRepository loads the tax reference table once and serves lookups from
// memory, keyed by lowercase state name.
type TaxRepository struct {
	path  string
	taxes map[string]model.Tax
}

func NewTaxRepository(path string) *TaxRepository {
	return &TaxRepository{path: path, taxes: make(map[string]model.Tax)}
}

func (r *TaxRepository) Load() error {
	f, err := os.Open(r.path)
	if err != nil {
		return errors.Wrap(err, "open tax table")
	}
	defer f.Close()

	taxes := make(map[string]model.Tax)
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
			return errors.Errorf("malformed tax record %q", line)
		}
		rate, err := decimal.NewFromString(parts[2])
		if err != nil {
			return errors.Wrapf(err, "tax rate in record %q", line)
		}
		taxes[strings.ToLower(parts[1])] = model.Tax{
			State:     parts[0],
			StateName: parts[1],
			Rate:      rate,
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read tax table")
	}
	r.taxes = taxes
	return nil
}

func (r *TaxRepository) Find(stateName string) (model.Tax, error) {
	tax, ok := r.taxes[strings.ToLower(stateName)]
	if !ok {
		return model.Tax{}, model.ErrTaxNotFound
	}
	return tax, nil
}
