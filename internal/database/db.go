// Package database opens the local SQLite database that holds client state
// (saved bulk fetch selections) and keeps its schema migrated.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"laune/reader/internal/database/migrations"
)

// driverName is go-sqlite3 with pragmas that have no DSN parameter applied
// to every new connection.
const driverName = "sqlite3_laune"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			_, err := conn.Exec("PRAGMA temp_store = MEMORY;", nil)
			return err
		},
	})
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// DB represents the database connection
type DB struct {
	*sqlx.DB
}

// NewDB opens the state database, applies pragmas and runs pending migrations.
func NewDB(cfg *Config) (*DB, error) {
	dir := filepath.Dir(cfg.DBPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = defaultMaxOpenConns
	}

	// WAL lets page handlers read selections while another session saves one.
	// DSN pragmas are applied per connection, not once per pool.
	dsn := fmt.Sprintf("%s?_journal=WAL&_synchronous=NORMAL&_busy_timeout=%d&_foreign_keys=1&_cache_size=%d",
		cfg.DBPath, cfg.BusyTimeoutMS, cfg.CacheSizeKB)

	log.Info().Str("path", cfg.DBPath).Msg("Opening state database")

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Debug().Msg("Running database migrations...")
	migrationList, err := migrations.LoadMigrations(migrations.Files)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := migrations.RunMigrations(db.DB, migrationList); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	log.Info().Int("migrations", len(migrationList)).Msg("State database ready")
	return &DB{db}, nil
}
