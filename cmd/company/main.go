package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gartstein/companyemployees/internal/company/auth"
	"github.com/gartstein/companyemployees/internal/company/cache"
	"github.com/gartstein/companyemployees/internal/company/config"
	"github.com/gartstein/companyemployees/internal/company/controller"
	"github.com/gartstein/companyemployees/internal/company/db"
	"github.com/gartstein/companyemployees/internal/company/events"
	"github.com/gartstein/companyemployees/internal/company/handlers"
	"github.com/gartstein/companyemployees/internal/company/ratelimit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// eventCloser is the producer as seen by main: it publishes and must be drained on exit.
type eventCloser interface {
	controller.EventProducer
	Close()
}

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		initLogger("info").Fatal("failed to load config", zap.Error(err))
	}

	logger := initLogger(cfg.LogLevel)
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Open(ctx, initDatabase(cfg), logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(database); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx, database, logger); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	outputCache := initCache(ctx, cfg, logger)

	producer := initProducer(cfg, logger)
	defer producer.Close()

	if len(cfg.KafkaBrokers) > 0 {
		consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.Topic, cfg.GroupID, logger)
		// repeats the handler's eviction in case it failed
		consumer.RegisterHandler(func(ctx context.Context, _ events.Event) error {
			return outputCache.EvictByTag(ctx, handlers.CompaniesTag)
		})
		consumer.Start(ctx)
		defer consumer.Close()
	}

	authSettings := auth.Settings{
		Secret:   cfg.Secret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Expires:  cfg.JWTExpires,
	}
	services := controller.NewServiceManager(
		db.NewRepositoryFactory(database),
		db.NewUserStore(database),
		auth.NewIssuer(authSettings),
		producer,
		logger,
	)

	router := handlers.NewRouter(handlers.RouterConfig{
		Services:     services,
		Cache:        outputCache,
		AuthSettings: authSettings,
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		GlobalLimit: ratelimit.Options{
			PermitLimit: cfg.GlobalPermitLimit,
			Window:      cfg.GlobalWindow,
			QueueLimit:  cfg.GlobalQueueLimit,
		},
		SpecificLimit: ratelimit.Options{
			PermitLimit: cfg.SpecificPermitLimit,
			Window:      cfg.SpecificWindow,
		},
		Production: cfg.IsProduction(),
	})

	server := handlers.NewServer(cfg.HTTPPort, router, logger)
	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger at the configured level.
func initLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger = zap.NewExample()
		logger.Warn("falling back to example logger", zap.Error(err))
	}
	return logger
}

// initDatabase maps the configuration onto database settings.
func initDatabase(cfg *config.Config) *db.Config {
	return &db.Config{
		Driver:         cfg.DBDriver,
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		DBName:         cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		Path:           cfg.DBPath,
		ConnectTimeout: 30 * time.Second,
	}
}

// initCache connects to Redis. Without REDIS_ADDR, or when Redis is down, responses are not cached.
func initCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) *cache.OutputCache {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, output caching disabled")
		return cache.New(nil, logger)
	}
	client, err := cache.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, output caching disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return cache.New(nil, logger)
	}
	return cache.New(client, logger)
}

// initProducer publishes to Kafka when brokers are configured and logs events otherwise.
func initProducer(cfg *config.Config, logger *zap.Logger) eventCloser {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, company events are only logged")
		return events.NewLogProducer(logger)
	}
	producer, err := events.NewProducer(cfg.KafkaBrokers, cfg.Topic, logger)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	return producer
}

// waitForShutdown serves until an interrupt or SIGTERM is received, then shuts the server down.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-stop:
		server.Stop()
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
		}
	}
	logger.Info("Server stopped properly")
}
