// Package db implements the data access layer on top of GORM: connection setup,
// the repository manager with its unit of work, and schema migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the sqlite database file, ":memory:" for an in-process database.
	Path string
	// ConnectTimeout bounds the retries performed while the database comes up.
	ConnectTimeout time.Duration
}

// Open connects to the configured database, retrying with exponential backoff
// until the connection answers a ping or ConnectTimeout elapses.
func Open(ctx context.Context, cfg *Config, logger *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	operation := func() error {
		conn, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
		if err != nil {
			logger.Warn("database not ready", zap.String("driver", cfg.Driver), zap.Error(err))
			return err
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			logger.Warn("database ping failed", zap.String("driver", cfg.Driver), zap.Error(err))
			_ = sqlDB.Close()
			return err
		}
		if cfg.Driver == DriverSQLite {
			// every sqlite connection to :memory: is a separate database
			sqlDB.SetMaxOpenConns(1)
		}
		db = conn
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = cfg.ConnectTimeout
	if eb.MaxElapsedTime == 0 {
		eb.MaxElapsedTime = 30 * time.Second
	}
	if err := backoff.Retry(operation, backoff.WithContext(eb, ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func dialectorFor(cfg *Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
