package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ytgrab/internal/config"
	"ytgrab/internal/database"
	"ytgrab/internal/extractor"
	"ytgrab/internal/gate"
	"ytgrab/internal/metadata"
	"ytgrab/internal/observability"
	"ytgrab/internal/orchestrator"
	"ytgrab/internal/ports"
	"ytgrab/internal/queue"
	"ytgrab/internal/ratelimit"
	"ytgrab/internal/repository"
	"ytgrab/internal/server"
	"ytgrab/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	provider := observability.NewProvider(&observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
	})
	logger := provider.Logger("server")

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
	metadataRepo := repository.NewMetadataRepository(db)

	primary := extractor.NewYTDLP(provider.Logger("extractor.ytdlp"))
	secondary := extractor.NewYouTube(provider.Logger("extractor.youtube"))
	probeChain := extractor.NewProbeChain(provider.Logger("extractor"), primary, secondary)

	metadataSvc := metadata.NewService(metadataRepo, probeChain,
		provider.Logger("metadata"), provider.Metrics("metadata"))
	constraintGate := gate.New(probeChain, historyRepo,
		cfg.Downloads.MaxVideoSize, cfg.Downloads.MaxVideoDuration,
		provider.Logger("gate"), provider.Metrics("gate"))

	var store ports.CounterStore
	if cfg.RateLimit.Store == "redis" {
		store = ratelimit.NewRedisStore(cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisDB)
	} else {
		store = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.New(store, cfg.RateLimit.DailyCeiling, cfg.RateLimit.Window,
		provider.Logger("ratelimit"))

	var jobQueue ports.Queue
	if cfg.Queue.Driver == "rabbitmq" {
		jobQueue, err = queue.NewRabbitMQQueue(cfg.Queue.URL,
			provider.Logger("queue"), provider.Metrics("queue"))
		if err != nil {
			logger.Error("failed to connect queue", "error", err)
			os.Exit(1)
		}
	} else {
		jobQueue = queue.NewChannelQueue(cfg.Queue.Buffer)
	}
	defer jobQueue.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// With the in-process queue the download pool runs inside this binary;
	// with rabbitmq the separate worker binary consumes the jobs.
	var pool *worker.Pool
	if cfg.Queue.Driver == "channel" {
		orch := orchestrator.New(primary, secondary, historyRepo,
			cfg.Downloads.RetryAttempts, cfg.Downloads.RetryBackoff,
			provider.Logger("orchestrator"), provider.Metrics("orchestrator"))
		pool = worker.NewPool(jobQueue, orch, cfg.Queue.Name, cfg.Downloads.Workers,
			provider.Logger("worker"), provider.Metrics("worker"))
		pool.Start(ctx)
	}

	srv := server.New(cfg, limiter, constraintGate, historyRepo, metadataSvc,
		jobQueue, provider, logger, provider.Metrics("server"))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	if pool != nil {
		pool.Stop()
	}
	logger.Info("server stopped")
}
