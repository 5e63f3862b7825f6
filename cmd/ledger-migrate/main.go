// Command ledger-migrate applies or rolls back the ledger schema.
//
//	ledger-migrate up|down|version
//
// MIGRATE_STEPS limits up/down to that many migrations.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"

	"github.com/SscSPs/ledger_core/migrations"
	"github.com/SscSPs/ledger_core/pkg/config"
	"github.com/SscSPs/ledger_core/pkg/database"
	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.LoadConfig()
	if err != nil || cfg.DatabaseURL == "" {
		logger.Error("PGSQL_URL is required")
		os.Exit(1)
	}

	// Fail fast with a clear message before golang-migrate gets involved.
	pool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Database unreachable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	database.ClosePgxPool(pool)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance", slog.String("error", err.Error()))
		os.Exit(1)
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		logger.Error("Could not open migration source", slog.String("error", err.Error()))
		os.Exit(1)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer m.Close()

	switch cmd {
	case "up":
		if cfg.Steps > 0 {
			err = m.Steps(cfg.Steps)
		} else {
			err = m.Up()
		}
	case "down":
		if cfg.Steps > 0 {
			err = m.Steps(-cfg.Steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			logger.Error("Failed to read schema version", slog.String("error", verr.Error()))
			os.Exit(1)
		}
		logger.Info("Schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		return
	default:
		logger.Error("Unknown command, want up, down or version", slog.String("command", cmd))
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migration failed", slog.String("command", cmd), slog.String("error", err.Error()))
		os.Exit(1)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No migrations to apply", slog.String("command", cmd))
		return
	}
	logger.Info("Migrations applied", slog.String("command", cmd))
}
