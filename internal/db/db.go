package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var (
	DB *sqlx.DB
)

// Init opens the PostgreSQL connection and assigns it to DB, retrying while
// the server comes up. It gives up early when ctx is done.
func Init(ctx context.Context, databaseURL string) error {
	const maxRetries = 10
	const retryInterval = 2 * time.Second
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		DB, err = sqlx.ConnectContext(ctx, "postgres", databaseURL)
		if err == nil {
			log.Info().Int("attempt", attempt).Msg("connected to database")
			return nil
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", retryInterval)

		select {
		case <-ctx.Done():
			return fmt.Errorf("connect to database: %w", ctx.Err())
		case <-time.After(retryInterval):
		}
	}

	return fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
}

// RunMigrations applies every "*.up.sql" file in migrationsPath that is not
// yet recorded in schema_migrations, in file name order. Each file runs in
// its own transaction together with its bookkeeping row.
func RunMigrations(ctx context.Context, db *sqlx.DB, migrationsPath string) error {
	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	if len(files) == 0 {
		log.Warn().Str("path", migrationsPath).Msg("no migrations found")
		return nil
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
	    filename   TEXT        PRIMARY KEY,
	    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var done []string
	if err := db.SelectContext(ctx, &done, `SELECT filename FROM schema_migrations;`); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, name := range done {
		applied[name] = true
	}

	for _, file := range files {
		name := filepath.Base(file)
		if applied[name] {
			continue
		}
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", name, err)
		}

		err = inTx(ctx, db, func(tx *sqlx.Tx) error {
			if len(sqlBytes) > 0 {
				if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1);`, name)
			return err
		})
		if err != nil {
			return fmt.Errorf("error executing migration %q: %w", name, err)
		}
		log.Info().Str("file", name).Msg("applied migration")
	}
	return nil
}
