package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"flooring/pkg/config"
	"flooring/pkg/domain/model"
	"flooring/pkg/domain/service"
	"flooring/pkg/infrastructure/filestore"
	"flooring/pkg/infrastructure/mysql"
	"flooring/pkg/ui"
)

func main() {
	app := &cli.App{
		Name:  "flooring",
		Usage: "console order management for a flooring retailer",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "start the interactive order console",
				Action: runConsole,
			},
			{
				Name:   "export",
				Usage:  "export every order to the backup file",
				Action: runExport,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations (mysql backend only)",
				Action: runMigrations,
			},
		},
		DefaultCommand: "run",
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runConsole(*cli.Context) error {
	cfg, svc, err := setup()
	if err != nil {
		return err
	}
	logger := log.WithFields(log.Fields{"session_id": uuid.NewString(), "backend": cfg.Backend})
	logger.Info("session started")
	err = ui.NewController(svc, ui.NewView(os.Stdin, os.Stdout)).Run()
	if err != nil {
		logger.WithError(err).Error("session aborted")
		return err
	}
	logger.Info("session finished")
	return nil
}

func runExport(*cli.Context) error {
	cfg, svc, err := setup()
	if err != nil {
		return err
	}
	if err := svc.ExportOrders(); err != nil {
		return err
	}
	log.WithField("file", cfg.BackupFile).Info("orders exported")
	return nil
}

func runMigrations(*cli.Context) error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	configureLogging(cfg)
	if cfg.Backend != "mysql" {
		return errors.New("migrate applies to the mysql backend only")
	}
	return mysql.Migrate(cfg.MigrationsDir, cfg.MySQLDSN)
}

func setup() (config.Config, service.OrderService, error) {
	cfg, err := config.Parse()
	if err != nil {
		return cfg, nil, err
	}
	configureLogging(cfg)

	orders, err := newOrderRepository(cfg)
	if err != nil {
		return cfg, nil, err
	}
	products := filestore.NewProductRepository(cfg.ProductsFile)
	taxes := filestore.NewTaxRepository(cfg.TaxesFile)
	return cfg, service.NewOrderService(orders, products, taxes), nil
}

func newOrderRepository(cfg config.Config) (model.OrderRepository, error) {
	switch cfg.Backend {
	case "file":
		return filestore.NewOrderRepository(cfg.OrdersDir, cfg.BackupFile, cfg.CounterFile), nil
	case "mysql":
		db, err := mysql.Connect(cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		return mysql.NewOrderRepository(db, cfg.BackupFile), nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func configureLogging(cfg config.Config) {
	log.SetOutput(os.Stderr)
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
}
