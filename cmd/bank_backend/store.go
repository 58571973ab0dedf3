package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	portsrepo "github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	"github.com/SscSPs/janseva_bank/internal/platform/config"
	"github.com/SscSPs/janseva_bank/internal/repositories/database/mysql"
	"github.com/SscSPs/janseva_bank/internal/repositories/database/pgsql"
	"github.com/SscSPs/janseva_bank/internal/repositories/memory"
	"github.com/SscSPs/janseva_bank/pkg/database"
	"github.com/SscSPs/janseva_bank/pkg/wal"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ledgerStore is the repository provider of the configured driver together
// with whatever must be closed on shutdown.
type ledgerStore struct {
	repos portsrepo.RepositoryProvider
	close func()
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ledgerStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		return openPostgresStore(ctx, cfg, logger)
	case config.StoreDriverMySQL:
		return openMySQLStore(ctx, cfg, logger)
	case config.StoreDriverMemory:
		return openMemoryStore(cfg, logger)
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

func openPostgresStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ledgerStore, error) {
	if err := runMigrations(cfg, logger); err != nil {
		return nil, err
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.PgMaxConns, cfg.EnableDBCheck)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	logger.Info("Database connection pool established.")

	return &ledgerStore{
		repos: pgsql.NewRepositoryProvider(dbPool, cfg.LedgerLockTimeout),
		close: func() { database.ClosePgxPool(dbPool) },
	}, nil
}

// runMigrations applies the SQL migrations over a temporary database/sql
// connection using the pgx stdlib driver.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		return fmt.Errorf("migration close failed: %w", errors.Join(sourceErr, dbErr))
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func openMySQLStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ledgerStore, error) {
	db, err := database.NewGormMySQL(ctx, database.MySQLConfig{
		DSN:             cfg.MySQLDSN,
		LogLevel:        cfg.MySQLLogLevel,
		MaxOpenConns:    cfg.MySQLMaxOpenConns,
		MaxIdleConns:    cfg.MySQLMaxIdleConns,
		ConnMaxLifetime: cfg.MySQLConnMaxLifetime,
		ConnectAttempts: 10,
		RetryInterval:   3 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}
	if err := mysql.AutoMigrate(ctx, db); err != nil {
		_ = database.CloseGormDB(db)
		return nil, fmt.Errorf("failed to migrate mysql schema: %w", err)
	}
	logger.Info("MySQL schema is up to date.")

	return &ledgerStore{
		repos: mysql.NewRepositoryProvider(db, cfg.LedgerLockTimeout),
		close: func() {
			if err := database.CloseGormDB(db); err != nil {
				logger.Error("Failed to close mysql connection", slog.String("error", err.Error()))
			}
		},
	}, nil
}

func openMemoryStore(cfg *config.Config, logger *slog.Logger) (*ledgerStore, error) {
	opts := []memory.Option{memory.WithLockTimeout(cfg.LedgerLockTimeout)}
	var log *wal.WAL
	if cfg.MemoryWALPath != "" {
		var err error
		log, err = wal.Open(cfg.MemoryWALPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger wal: %w", err)
		}
		opts = append(opts, memory.WithWAL(log))
	}

	store, err := memory.NewStore(opts...)
	if err != nil {
		if log != nil {
			_ = log.Close()
		}
		return nil, err
	}
	logger.Info("In-memory ledger store ready", slog.String("wal_path", cfg.MemoryWALPath))

	return &ledgerStore{
		repos: memory.NewRepositoryProvider(store),
		close: func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close ledger wal", slog.String("error", err.Error()))
			}
		},
	}, nil
}
