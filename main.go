// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"studio-booking/cmd"
	"studio-booking/internal/audit"
	"studio-booking/internal/data/repository"
	"studio-booking/internal/wire"
	"studio-booking/pkg/database"
	"studio-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Database.Migrate {
		if err := database.Migrate(config.Database.Path, logger); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	// Connection pool
	pool, err := database.NewPool(database.PoolConfig{
		Path:           config.Database.Path,
		MaxConnections: config.Database.MaxConns,
		AcquireTimeout: config.Database.AcquireTimeout,
		BusyTimeout:    config.Database.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Initialize(ctx); err != nil {
		logger.Fatal("Failed to initialize connection pool", zap.Error(err))
	}

	sink, closeSink := buildAuditSink(config.Audit, pool, logger)
	defer closeSink()

	repos := repository.NewRepository(pool, audit.NewEmitter(sink, logger), logger)

	app := wire.Wiring(pool, repos, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}

// buildAuditSink assembles the sinks named in AUDIT_SINKS. Unknown names
// are logged and skipped. The returned func releases broker connections.
func buildAuditSink(cfg utils.AuditConfig, pool database.PoolIface, logger *zap.Logger) (audit.Sink, func()) {
	var sinks audit.MultiSink
	closeFn := func() {}

	for _, name := range cfg.Sinks {
		switch name {
		case "log":
			sinks = append(sinks, audit.NewLogSink(logger))
		case "table":
			sinks = append(sinks, audit.NewTableSink(repository.NewAuditRepository(pool, logger)))
		case "amqp":
			if cfg.AMQPURL == "" {
				logger.Warn("AMQP audit sink requested without AMQP_URL, skipping")
				continue
			}
			amqpSink := audit.NewAMQPSink(cfg.AMQPURL, cfg.Queue, logger)
			sinks = append(sinks, amqpSink)
			closeFn = func() { _ = amqpSink.Close() }
		default:
			logger.Warn("Unknown audit sink", zap.String("sink", name))
		}
	}

	logger.Info("Audit sinks configured", zap.Strings("sinks", cfg.Sinks))
	return sinks, closeFn
}
