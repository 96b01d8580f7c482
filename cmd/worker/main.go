package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ytgrab/internal/config"
	"ytgrab/internal/database"
	"ytgrab/internal/extractor"
	"ytgrab/internal/observability"
	"ytgrab/internal/orchestrator"
	"ytgrab/internal/queue"
	"ytgrab/internal/repository"
	"ytgrab/internal/worker"
)

// The worker binary consumes download jobs from RabbitMQ. It is only needed
// when QUEUE_DRIVER=rabbitmq; with the in-process queue the server binary
// runs the pool itself.
func main() {
	cfg := config.MustLoad()

	provider := observability.NewProvider(&observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
	})
	logger := provider.Logger("worker")

	if err := cfg.EnsureDownloadsDir(); err != nil {
		logger.Error("failed to create downloads directory", "error", err)
		os.Exit(1)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	historyRepo := repository.NewHistoryRepository(db,
		provider.Logger("history"), provider.Metrics("history"))

	primary := extractor.NewYTDLP(provider.Logger("extractor.ytdlp"))
	secondary := extractor.NewYouTube(provider.Logger("extractor.youtube"))

	orch := orchestrator.New(primary, secondary, historyRepo,
		cfg.Downloads.RetryAttempts, cfg.Downloads.RetryBackoff,
		provider.Logger("orchestrator"), provider.Metrics("orchestrator"))

	jobQueue, err := queue.NewRabbitMQQueue(cfg.Queue.URL,
		provider.Logger("queue"), provider.Metrics("queue"))
	if err != nil {
		logger.Error("failed to connect queue", "error", err)
		os.Exit(1)
	}
	defer jobQueue.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := worker.NewPool(jobQueue, orch, cfg.Queue.Name, cfg.Downloads.Workers,
		provider.Logger("worker"), provider.Metrics("worker"))
	pool.Start(ctx)

	logger.Info("worker consuming", "queue", cfg.Queue.Name, "workers", cfg.Downloads.Workers)
	<-ctx.Done()

	pool.Stop()
	logger.Info("worker stopped")
}
