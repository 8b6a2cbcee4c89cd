package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"

	"document-chat/internal/config"
)

// ConnectDB opens the sql.DB for the configured driver and returns the bun
// dialect that goes with it.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, schema.Dialect, error) {
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create db directory %s: %w", dir, err)
			}
		}
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.DSN, err)
		}
		// sqlite allows a single writer; queue in the pool instead of failing with SQLITE_BUSY
		sqldb.SetMaxOpenConns(1)
		return sqldb, sqlitedialect.New(), nil
	case "postgres":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), pgdialect.New(), nil
	case "pq":
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return sqldb, pgdialect.New(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

func NewDB(sqldb *sql.DB, dialect schema.Dialect, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, dialect)
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// InitDB creates the history table if it does not exist. There are no
// migrations.
func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*ChatHistory)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Open connects, pings and initialises the schema.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*bun.DB, error) {
	sqldb, dialect, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	db := NewDB(sqldb, dialect, cfg.Debug)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}
	if err := InitDB(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}
