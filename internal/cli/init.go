// Package cli provides common initialization shared by cmd/balancete and
// cmd/balancete-import.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"balancete/internal/backend"
	"balancete/internal/config"
	"balancete/internal/events"
	"balancete/internal/events/amqp"
	"balancete/internal/events/kafka"
	"balancete/internal/ingest"
	"balancete/internal/log"
)

// SetupLogger initializes structured logging at the LOG_LEVEL level and makes
// it the default logger.
func SetupLogger() *log.Logger {
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Invalid LOG_LEVEL, using info", "error", err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend creates the configured repository or exits the process on failure.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger.With(log.FieldComponent, log.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// NewParser builds the upload dispatcher. A zero SYNTHETIC_SEED seeds the
// synthetic parser from the clock.
func NewParser(cfg *config.Config) *ingest.Dispatcher {
	if !cfg.IngestSynthetic {
		return ingest.NewDispatcher(nil)
	}
	seed := cfg.SyntheticSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return ingest.NewDispatcher(ingest.NewSyntheticParser(seed))
}

// Events holds the configured publisher and, for AMQP, the client that can
// also consume.
type Events struct {
	Publisher events.Publisher
	Consumer  *amqp.Client
}

// InitEvents connects the configured event transport. A broker that cannot be
// reached is logged and replaced by a no-op publisher.
func InitEvents(logger *log.Logger, cfg *config.Config, source string) Events {
	logger = logger.WithComponent(log.ComponentEvents)

	switch cfg.EventsBackend {
	case "amqp":
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, source)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			return Events{Publisher: events.NopPublisher{}}
		}
		logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange)
		return Events{Publisher: client, Consumer: client}
	case "kafka":
		logger.Info("Initialized Kafka publisher", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		return Events{Publisher: kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, source)}
	default:
		return Events{Publisher: events.NopPublisher{}}
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		if cleanup != nil {
			cleanup()
		}

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		default:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
