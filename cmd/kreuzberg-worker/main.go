// Command kreuzberg-worker is the standalone queue worker: it pulls
// kreuzberg:extract jobs from Redis, runs them through an Engine, and
// records status transitions in the PostgreSQL job ledger. Equivalent to
// `kreuzberg serve-queue`, packaged as its own binary for container
// deployments.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adverant/kreuzberg"
	"github.com/adverant/kreuzberg/internal/config"
	"github.com/adverant/kreuzberg/internal/jobstore"
	"github.com/adverant/kreuzberg/internal/logging"
	"github.com/adverant/kreuzberg/internal/queue"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env not found, using system environment variables")
	}

	procCfg := config.LoadProcessConfig()
	logger := logging.New("kreuzberg-worker")

	logger.Info("kreuzberg worker starting",
		"redis", procCfg.RedisURL, "batch_workers", procCfg.BatchWorkers)

	engine, err := kreuzberg.New(kreuzberg.WithProcessConfig(procCfg), kreuzberg.WithLogger(logger))
	if err != nil {
		log.Fatalf("failed to initialize engine: %v", err)
	}
	defer func() {
		if err := engine.Shutdown(context.Background()); err != nil {
			logger.Warn("error during engine shutdown", "error", err)
		}
	}()

	var jobs *jobstore.Store
	if procCfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		jobs, err = jobstore.New(ctx, procCfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to job ledger: %v", err)
		}
		defer jobs.Close()

		migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := jobs.Migrate(migrateCtx); err != nil {
			log.Fatalf("failed to migrate job ledger: %v", err)
		}
		migrateCancel()
		logger.Info("job ledger ready")
	} else {
		logger.Warn("DATABASE_URL not set, job status updates will not be persisted")
	}

	lock, err := queue.NewDistributedLock(procCfg.RedisURL, 5*time.Minute)
	if err != nil {
		logger.Warn("distributed lock unavailable, duplicate extractions across workers are possible", "error", err)
	} else {
		defer lock.Close()
	}

	extractFn := func(ctx context.Context, path, mimeHint string, cfg kreuzberg.ExtractionConfig) (map[string]interface{}, error) {
		result, err := engine.ExtractFile(ctx, path, mimeHint, cfg)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"mime_type":          result.MimeType,
			"content_length":     len(result.Content),
			"table_count":        len(result.Tables),
			"detected_languages": result.DetectedLanguages,
			"chunk_count":        len(result.Chunks),
		}, nil
	}

	consumer, err := queue.NewConsumer(queue.ConsumerConfig{
		RedisURL:    procCfg.RedisURL,
		Concurrency: procCfg.BatchWorkers,
		Extract:     extractFn,
		Jobs:        jobs,
		Lock:        lock,
		Log:         logger,
	})
	if err != nil {
		log.Fatalf("failed to initialize queue consumer: %v", err)
	}

	if err := consumer.Start(); err != nil {
		log.Fatalf("failed to start queue consumer: %v", err)
	}
	logger.Info("kreuzberg worker ready", "queue", queue.QueueName)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	if err := consumer.Stop(); err != nil {
		logger.Warn("error stopping queue consumer", "error", err)
	}
	logger.Info("shutdown complete")
}
