package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/DukeRupert/jyotai/internal"
	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// app carries the dependencies shared by every subcommand. Tests swap
// openStore for an in-memory store.
type app struct {
	databaseURL string
	logLevel    string
	now         func() time.Time
	openStore   func(ctx context.Context, a *app) (repository.Store, func(), error)
	openDB      func(ctx context.Context, a *app) (*sql.DB, func(), error)
}

func newApp() *app {
	return &app{
		now:       func() time.Time { return time.Now().UTC() },
		openStore: openPostgresStore,
		openDB:    openPostgresDB,
	}
}

func (a *app) logger() *slog.Logger {
	return internal.NewLogger(os.Stderr, "production", a.logLevel)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "jyotctl",
		Short:         "Operate a JyotAI deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(a),
		newUserCmd(a),
		newLifePathCmd(a),
		newTipCmd(a),
	)
	return root
}

func openPostgresStore(ctx context.Context, a *app) (repository.Store, func(), error) {
	pool, err := connect(ctx, a.databaseURL)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewPostgres(pool), pool.Close, nil
}

func openPostgresDB(ctx context.Context, a *app) (*sql.DB, func(), error) {
	pool, err := connect(ctx, a.databaseURL)
	if err != nil {
		return nil, nil, err
	}
	db := stdlib.OpenDBFromPool(pool)
	return db, func() {
		_ = db.Close()
		pool.Close()
	}, nil
}

func connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL or --database-url is required")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// cliError shows operators the caller-facing message for client errors and
// the full chain for everything else.
func cliError(err error) error {
	if domain.IsServerSide(domain.ErrorCode(err)) {
		return err
	}
	return errors.New(domain.ErrorMessage(err))
}
