// migrate applies the life manager schema to the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/logging"
	"github.com/OscarCarPu/life-manager/internal/storage"
)

const migrateTimeout = 2 * time.Minute

func main() {
	var (
		dryRun  = flag.Bool("dry-run", false, "Print the schema statements without applying them")
		driver  = flag.String("driver", "", "Override the configured database driver (postgres or sqlite3)")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *driver != "" {
		cfg.Database.Driver = *driver
	}

	if *dryRun {
		if err := printSchema(os.Stdout, cfg.Database.Driver); err != nil {
			log.Fatalf("Dry run failed: %v", err)
		}
		return
	}

	level := logging.ParseLogLevel(cfg.Logging.Level)
	if *verbose {
		level = logging.DEBUG
	}
	logger := logging.New(level, cfg.Logging.Format, os.Stderr).WithComponent("migrate")

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	if err := apply(ctx, cfg.Database, logger); err != nil {
		cancel()
		log.Fatalf("Migration failed: %v", err)
	}
}

// printSchema writes the DDL for driver, one statement per block
func printSchema(w io.Writer, driver string) error {
	stmts, err := storage.Schema(driver)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := fmt.Fprintf(w, "%s;\n\n", strings.TrimSpace(stmt)); err != nil {
			return err
		}
	}
	return nil
}

func apply(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) error {
	db, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	start := time.Now()
	if err := storage.Migrate(ctx, db, cfg.Driver); err != nil {
		return err
	}
	logger.Info("schema applied", "driver", cfg.Driver, "duration", time.Since(start).String())
	return nil
}
