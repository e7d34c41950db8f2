// Command migrate applies pending database migrations, or reverts the most
// recent ones with -down.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/gartstein/companyemployees/internal/company/config"
	"github.com/gartstein/companyemployees/internal/company/db"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	down := flag.Int("down", 0, "number of migrations to revert instead of migrating up")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	database, err := db.Open(ctx, &db.Config{
		Driver:         cfg.DBDriver,
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		DBName:         cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		Path:           cfg.DBPath,
		ConnectTimeout: 30 * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close(database) }()

	if *down > 0 {
		if err := db.Rollback(ctx, database, *down, logger); err != nil {
			logger.Fatal("rollback failed", zap.Error(err))
		}
		return
	}
	if err := db.Migrate(ctx, database, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
}
