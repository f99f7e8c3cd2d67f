// Package mysql implements the order repository over MySQL/MariaDB for
// deployments that outgrow the flat-file layout. The export still produces
// the same flat backup file, so both backends stay interchangeable.
package mysql

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"flooring/pkg/domain/model"
	"flooring/pkg/infrastructure/filestore"
)

// Connect opens a MySQL connection and verifies it with a ping. The DSN must
// include parseTime=true so DATE columns scan into time.Time.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", dsn)
	return db, errors.Wrap(err, "connect to mysql")
}

type OrderRepository struct {
	db         *sqlx.DB
	backupFile string
}

func NewOrderRepository(db *sqlx.DB, backupFile string) *OrderRepository {
	return &OrderRepository{db: db, backupFile: backupFile}
}

type orderRow struct {
	OrderDate              time.Time       `db:"order_date"`
	OrderNumber            int             `db:"order_number"`
	CustomerName           string          `db:"customer_name"`
	State                  string          `db:"state"`
	TaxRate                decimal.Decimal `db:"tax_rate"`
	ProductType            string          `db:"product_type"`
	Area                   decimal.Decimal `db:"area"`
	CostPerSquareFoot      decimal.Decimal `db:"cost_per_square_foot"`
	LaborCostPerSquareFoot decimal.Decimal `db:"labor_cost_per_square_foot"`
}

func (row orderRow) toOrder() model.Order {
	return model.Order{
		Date:                   row.OrderDate,
		Number:                 row.OrderNumber,
		CustomerName:           row.CustomerName,
		State:                  row.State,
		TaxRate:                row.TaxRate,
		ProductType:            row.ProductType,
		Area:                   row.Area,
		CostPerSquareFoot:      row.CostPerSquareFoot,
		LaborCostPerSquareFoot: row.LaborCostPerSquareFoot,
	}
}

const insertOrder = `
INSERT INTO orders (
	order_date, order_number, customer_name, state, tax_rate,
	product_type, area, cost_per_square_foot, labor_cost_per_square_foot
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *OrderRepository) Append(order model.Order) error {
	_, err := r.db.Exec(insertOrder,
		order.Date, order.Number, order.CustomerName, order.State, order.TaxRate,
		order.ProductType, order.Area, order.CostPerSquareFoot, order.LaborCostPerSquareFoot,
	)
	return errors.Wrap(err, "insert order")
}

func (r *OrderRepository) OrdersForDate(date time.Time) (map[int]model.Order, error) {
	var rows []orderRow
	err := r.db.Select(&rows,
		`SELECT order_date, order_number, customer_name, state, tax_rate,
		        product_type, area, cost_per_square_foot, labor_cost_per_square_foot
		 FROM orders WHERE order_date = ?`, date)
	if err != nil {
		return nil, errors.Wrap(err, "select orders for date")
	}
	// An empty result plays the role of a missing bucket file.
	if len(rows) == 0 {
		return nil, model.ErrNoOrdersForDate
	}
	orders := make(map[int]model.Order, len(rows))
	for _, row := range rows {
		orders[row.OrderNumber] = row.toOrder()
	}
	return orders, nil
}

// RewriteAll replaces one date's record set inside a transaction, mirroring
// the bucket-rewrite semantics of the file backend.
func (r *OrderRepository) RewriteAll(date time.Time, orders []model.Order) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin rewrite transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM orders WHERE order_date = ?`, date); err != nil {
		return errors.Wrap(err, "clear orders for date")
	}
	for _, order := range orders {
		if _, err := tx.Exec(insertOrder,
			date, order.Number, order.CustomerName, order.State, order.TaxRate,
			order.ProductType, order.Area, order.CostPerSquareFoot, order.LaborCostPerSquareFoot,
		); err != nil {
			return errors.Wrap(err, "insert rewritten order")
		}
	}
	return errors.Wrap(tx.Commit(), "commit rewrite transaction")
}

// ExportAll writes the combined backup file in the legacy flat format, dates
// ascending, order numbers ascending within a date.
func (r *OrderRepository) ExportAll() error {
	var rows []orderRow
	err := r.db.Select(&rows,
		`SELECT order_date, order_number, customer_name, state, tax_rate,
		        product_type, area, cost_per_square_foot, labor_cost_per_square_foot
		 FROM orders ORDER BY order_date, order_number`)
	if err != nil {
		return errors.Wrap(err, "select orders for export")
	}
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
	fmt.Fprintln(w, filestore.ExportHeader)
	for _, row := range rows {
		order := row.toOrder()
		fmt.Fprintln(w, filestore.MarshalRecord(order)+filestore.Delimiter+order.Date.Format(filestore.ExportDateFormat))
	}
	return errors.Wrap(w.Flush(), "write export file")
}

// LoadOrderNumber defaults to 1 on any failure, same lenient behavior as the
// file backend.
func (r *OrderRepository) LoadOrderNumber() int {
	var number int
	if err := r.db.Get(&number, `SELECT next_number FROM order_sequence WHERE id = 1`); err != nil || number < 1 {
		return 1
	}
	return number
}

func (r *OrderRepository) SaveOrderNumber(number int) error {
	_, err := r.db.Exec(
		`INSERT INTO order_sequence (id, next_number) VALUES (1, ?)
		 ON DUPLICATE KEY UPDATE next_number = VALUES(next_number)`, number)
	return errors.Wrap(err, "save order number")
}
