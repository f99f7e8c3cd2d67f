// Package filestore implements the repositories over the legacy flat-file
// layout: one ::-delimited text file per order date, two read-only reference
// tables and a single-integer order-number file.
package filestore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"flooring/pkg/domain/model"
)

const (
	// Delimiter joins record fields; it never occurs inside a field.
	Delimiter = "::"

	// Header is the first line of every order bucket, written on creation
	// and skipped on read.
	Header = "OrderNumber" + Delimiter + "CustomerName" + Delimiter + "State" +
		Delimiter + "TaxRate" + Delimiter + "ProductType" + Delimiter + "Area" +
		Delimiter + "CostPerSquareFoot" + Delimiter + "LaborCostPerSquareFoot" +
		Delimiter + "MaterialCost" + Delimiter + "LaborCost" + Delimiter + "Tax" +
		Delimiter + "Total"

	// ExportHeader heads the combined backup file, which carries the order
	// date as an extra trailing column.
	ExportHeader = Header + Delimiter + "OrderDate"

	// ExportDateFormat is the display format of the order-date column
	// appended to every exported record; bucket file names embed the date
	// as MMDDYYYY instead.
	ExportDateFormat = "01-02-2006"

	bucketPrefix = "Order_"
	bucketSuffix = ".txt"

	bucketDateFormat = "01022006"
)

// MarshalRecord renders one order as a bucket record line. All decimal fields
// are written with exactly two fraction digits; the derived costs are
// recomputed, never copied from a previous read.
func MarshalRecord(o model.Order) string {
	fields := []string{
		strconv.Itoa(o.Number),
		o.CustomerName,
		o.State,
		o.TaxRate.StringFixed(2),
		o.ProductType,
		o.Area.StringFixed(2),
		o.CostPerSquareFoot.StringFixed(2),
		o.LaborCostPerSquareFoot.StringFixed(2),
		o.MaterialCost().StringFixed(2),
		o.LaborCost().StringFixed(2),
		o.Tax().StringFixed(2),
		o.Total().StringFixed(2),
	}
	return strings.Join(fields, Delimiter)
}

func unmarshalRecord(line string, date time.Time) (model.Order, error) {
	parts := strings.Split(line, Delimiter)
	if len(parts) < 8 {
		return model.Order{}, errors.Errorf("malformed order record %q", line)
	}
	number, err := strconv.Atoi(parts[0])
	if err != nil {
		return model.Order{}, errors.Wrapf(err, "order number in record %q", line)
	}
	taxRate, err := decimal.NewFromString(parts[3])
	if err != nil {
		return model.Order{}, errors.Wrapf(err, "tax rate in record %q", line)
	}
	area, err := decimal.NewFromString(parts[5])
	if err != nil {
		return model.Order{}, errors.Wrapf(err, "area in record %q", line)
	}
	cost, err := decimal.NewFromString(parts[6])
	if err != nil {
		return model.Order{}, errors.Wrapf(err, "cost per square foot in record %q", line)
	}
	labor, err := decimal.NewFromString(parts[7])
	if err != nil {
		return model.Order{}, errors.Wrapf(err, "labor cost per square foot in record %q", line)
	}
	// The four trailing cost columns are not read back; they derive from the
	// fields above and recompute on demand.
	return model.Order{
		Date:                   date,
		Number:                 number,
		CustomerName:           parts[1],
		State:                  parts[2],
		TaxRate:                taxRate,
		ProductType:            parts[4],
		Area:                   area,
		CostPerSquareFoot:      cost,
		LaborCostPerSquareFoot: labor,
	}, nil
}

type OrderRepository struct {
	ordersDir   string
	backupFile  string
	counterFile string
}

func NewOrderRepository(ordersDir, backupFile, counterFile string) *OrderRepository {
	return &OrderRepository{
		ordersDir:   ordersDir,
		backupFile:  backupFile,
		counterFile: counterFile,
	}
}

func (r *OrderRepository) bucketPath(date time.Time) string {
	return filepath.Join(r.ordersDir, bucketPrefix+date.Format(bucketDateFormat)+bucketSuffix)
}

// Append adds one record to the order's date bucket, creating the bucket with
// its header line first when the bucket does not exist yet.
func (r *OrderRepository) Append(order model.Order) error {
	if err := os.MkdirAll(r.ordersDir, 0o755); err != nil {
		return errors.Wrap(err, "create orders directory")
	}
	f, err := os.OpenFile(r.bucketPath(order.Date), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open order bucket")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat order bucket")
	}
	w := bufio.NewWriter(f)
	if info.Size() == 0 {
		fmt.Fprintln(w, Header)
	}
	fmt.Fprintln(w, MarshalRecord(order))
	return errors.Wrap(w.Flush(), "append order record")
}

// OrdersForDate loads one bucket into a map keyed by order number.
func (r *OrderRepository) OrdersForDate(date time.Time) (map[int]model.Order, error) {
	f, err := os.Open(r.bucketPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrNoOrdersForDate
		}
		return nil, errors.Wrap(err, "open order bucket")
	}
	defer f.Close()

	orders := make(map[int]model.Order)
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
		order, err := unmarshalRecord(line, date)
		if err != nil {
			return nil, err
		}
		orders[order.Number] = order
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read order bucket")
	}
	return orders, nil
}

// RewriteAll replaces a bucket with exactly the given orders. The new content
// is written to a temp file and renamed over the bucket, so a crash mid-write
// leaves the previous content intact.
func (r *OrderRepository) RewriteAll(date time.Time, orders []model.Order) error {
	if err := os.MkdirAll(r.ordersDir, 0o755); err != nil {
		return errors.Wrap(err, "create orders directory")
	}
	tmp, err := os.CreateTemp(r.ordersDir, bucketPrefix+"*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temporary bucket")
	}
	w := bufio.NewWriter(tmp)
	fmt.Fprintln(w, Header)
	for _, order := range orders {
		fmt.Fprintln(w, MarshalRecord(order))
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write order bucket")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close temporary bucket")
	}
	if err := os.Rename(tmp.Name(), r.bucketPath(date)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "replace order bucket")
	}
	return nil
}

// ExportAll overwrites the backup file with every bucket's records, each
// annotated with its bucket's date as a trailing column. Buckets are visited
// in directory order (lexicographic by file name), record order within a
// bucket is preserved. A missing orders directory yields a header-only export.
func (r *OrderRepository) ExportAll() error {
	if dir := filepath.Dir(r.backupFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create backup directory")
		}
	}
	out, err := os.Create(r.backupFile)
	if err != nil {
		return errors.Wrap(err, "create export file")
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	fmt.Fprintln(w, ExportHeader)

	entries, err := os.ReadDir(r.ordersDir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(w.Flush(), "write export file")
		}
		return errors.Wrap(err, "list order buckets")
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, bucketPrefix) || !strings.HasSuffix(name, bucketSuffix) {
			continue
		}
		date, err := time.Parse(bucketDateFormat, strings.TrimSuffix(strings.TrimPrefix(name, bucketPrefix), bucketSuffix))
		if err != nil {
			log.WithField("file", name).Warn("skipping unrecognized file in orders directory")
			continue
		}
		if err := r.exportBucket(w, filepath.Join(r.ordersDir, name), date); err != nil {
			return err
		}
	}
	return errors.Wrap(w.Flush(), "write export file")
}

func (r *OrderRepository) exportBucket(w io.Writer, path string, date time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open order bucket")
	}
	defer f.Close()

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
		fmt.Fprintln(w, line+Delimiter+date.Format(ExportDateFormat))
	}
	return errors.Wrap(scanner.Err(), "read order bucket")
}

// LoadOrderNumber reads the persisted counter. Missing or corrupt content
// defaults to 1 rather than erroring.
func (r *OrderRepository) LoadOrderNumber() int {
	data, err := os.ReadFile(r.counterFile)
	if err != nil {
		return 1
	}
	number, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || number < 1 {
		log.WithField("file", r.counterFile).Warn("order number file is corrupt, starting from 1")
		return 1
	}
	return number
}

func (r *OrderRepository) SaveOrderNumber(number int) error {
	if dir := filepath.Dir(r.counterFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create data directory")
		}
	}
	return errors.Wrap(
		os.WriteFile(r.counterFile, []byte(strconv.Itoa(number)+"\n"), 0o644),
		"save order number",
	)
}
