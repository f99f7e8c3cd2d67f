package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config is read from FLOORING_* environment variables. Defaults match the
// legacy storage layout, so running from a data directory just works.
type Config struct {
	OrdersDir     string `envconfig:"ORDERS_DIR" default:"Orders"`
	BackupFile    string `envconfig:"BACKUP_FILE" default:"Backup/DataExport.txt"`
	CounterFile   string `envconfig:"ORDER_NUMBER_FILE" default:"Data/OrderNumber.txt"`
	ProductsFile  string `envconfig:"PRODUCTS_FILE" default:"Data/Products.txt"`
	TaxesFile     string `envconfig:"TAXES_FILE" default:"Data/Taxes.txt"`
	Backend       string `envconfig:"BACKEND" default:"file"`
	MySQLDSN      string `envconfig:"MYSQL_DSN"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
}

func Parse() (Config, error) {
	var c Config
	err := envconfig.Process("flooring", &c)
	return c, errors.Wrap(err, "parse configuration")
}
