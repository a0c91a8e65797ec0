package main

import (
	"fmt"
	"os"

	"github.com/Chenyi0309/inventory-dashboard/internal/app"
	"github.com/Chenyi0309/inventory-dashboard/internal/catalog"
	"github.com/Chenyi0309/inventory-dashboard/internal/config"
	"github.com/Chenyi0309/inventory-dashboard/internal/repository/postgres"
	"github.com/Chenyi0309/inventory-dashboard/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string; selects the postgres backend",
		Required: required,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "file",
		Usage: "Local CSV/XLSX event table; selects the file backend",
	}
}

func newThresholdFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "category", Usage: "Only show items in this category"},
		&cli.IntFlag{Name: "warn-days", Usage: "Days-left threshold for warn"},
		&cli.IntFlag{Name: "urgent-days", Usage: "Days-left threshold for urgent"},
	}
}

func main() {
	cliApp := &cli.App{
		Name:  "inventory",
		Usage: "Forecast stock levels from the purchase/remainder event table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "warn",
			},
			&cli.BoolFlag{
				Name:    "log-json",
				Usage:   "Emit JSON logs",
				EnvVars: []string{"LOG_JSON"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Configure(c.String("log-level"), c.Bool("log-json"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "summary",
				Usage: "Print the forecast for every item",
				Flags: append([]cli.Flag{
					newFileFlag(),
					newDBURLFlag(false),
					&cli.StringFlag{Name: "format", Usage: "table, csv or json", Value: "table"},
				}, newThresholdFlags()...),
				Action: runSummary,
			},
			{
				Name:  "record",
				Usage: "Append one purchase or remainder event",
				Flags: []cli.Flag{
					newFileFlag(),
					newDBURLFlag(false),
					&cli.StringFlag{Name: "item", Required: true},
					&cli.StringFlag{Name: "kind", Usage: "purchase/买入 or remainder/剩余", Required: true},
					&cli.Float64Flag{Name: "qty", Required: true},
					&cli.StringFlag{Name: "unit"},
					&cli.Float64Flag{Name: "price", Usage: "Unit price, purchases only"},
					&cli.StringFlag{Name: "date", Usage: "Event date, defaults to today"},
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "notes"},
				},
				Action: runRecord,
			},
			{
				Name:  "import",
				Usage: "Append ledger files (CSV/XLSX) from disk, Google Drive or object storage",
				Flags: []cli.Flag{
					newDBURLFlag(false),
					&cli.StringFlag{Name: "target", Usage: "Local CSV event table to append to; selects the file backend"},
					&cli.StringSliceFlag{Name: "file", Usage: "Ledger file to import (repeatable)"},
					&cli.StringFlag{Name: "drive-folder-id", Usage: "Google Drive folder holding ledger files"},
					&cli.StringFlag{Name: "drive-folder-path", Usage: "Google Drive folder path, e.g. ledgers/2024"},
					&cli.StringFlag{Name: "bucket", Usage: "Object storage bucket holding ledger files"},
					&cli.StringFlag{Name: "prefix", Usage: "Object key prefix to import"},
					&cli.StringFlag{Name: "download-dir", Usage: "Where remote files are saved", Value: "./data/tmp/import"},
				},
				Action: runImport,
			},
			{
				Name:  "export",
				Usage: "Write the summary CSV to a file or object storage",
				Flags: append([]cli.Flag{
					newFileFlag(),
					newDBURLFlag(false),
					&cli.StringFlag{Name: "out", Usage: "Output path; - for stdout"},
					&cli.StringFlag{Name: "bucket", Usage: "Upload to this bucket instead"},
					&cli.StringFlag{Name: "key", Usage: "Object key; defaults to a timestamped name under STORAGE_PREFIX"},
				}, newThresholdFlags()...),
				Action: runExport,
			},
			{
				Name:  "migrate",
				Usage: "Create the postgres tables and load the item catalog",
				Flags: []cli.Flag{
					newDBURLFlag(true),
					&cli.StringFlag{Name: "catalog", Usage: "YAML item catalog to upsert", EnvVars: []string{"CATALOG_FILE"}},
				},
				Action: runMigrate,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openServices builds the services for a command. --file and --db-url take
// precedence over INVENTORY_BACKEND.
func openServices(c *cli.Context, fileFlag string) (*app.Services, *config.Config, error) {
	cfg := config.Load()
	ctx := c.Context

	if path := c.String(fileFlag); path != "" {
		cfg.App.Backend = config.BackendFile
		cfg.App.File = path
	}

	if url := c.String("db-url"); url != "" {
		db, err := postgres.Open(ctx, "pgx", url)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewEventRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		svcs, err := app.BuildWithStore(ctx, cfg, repo, db.Close)
		return svcs, cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	svcs, err := app.Build(ctx, cfg)
	return svcs, cfg, err
}

func closeServices(svcs *app.Services) {
	if err := svcs.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close store")
	}
}

func runMigrate(c *cli.Context) error {
	ctx := c.Context

	db, err := postgres.Open(ctx, "pgx", c.String("db-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	repo := postgres.NewEventRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	fmt.Println("schema is up to date")

	path := c.String("catalog")
	if path == "" {
		return nil
	}

	cat, err := catalog.Load(path)
	if err != nil {
		return err
	}
	if err := repo.UpsertCatalog(ctx, cat.Items()); err != nil {
		return err
	}
	fmt.Printf("loaded %d catalog items\n", cat.Len())
	return nil
}
