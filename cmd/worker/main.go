package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dinenotify/internal/config"
	"dinenotify/internal/domain/notification"
	"dinenotify/internal/infra/provider"
	"dinenotify/internal/infra/queue"
	"dinenotify/internal/infra/store"

	"github.com/hibiken/asynq"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("worker configuration loaded")

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	// Supabase stores
	supaClient, err := store.NewSupabaseClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	if err != nil {
		slog.Error("failed to initialize supabase client", "error", err)
		os.Exit(1)
	}
	templateSource := store.NewSupabaseTemplateSource(supaClient)
	preferenceSource := store.NewSupabasePreferenceSource(supaClient)
	statusStore := store.NewSupabaseStatusStore(supaClient)
	slog.Info("supabase stores initialized")

	// Provider registry
	registry, err := provider.BuildRegistry(context.Background(), &cfg.Providers)
	if err != nil {
		slog.Error("failed to build provider registry", "error", err)
		os.Exit(1)
	}

	// Asynq client, so re-deferrals from the worker go back on the queue
	asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqClient.Close()
	scheduler := queue.NewAsynqScheduler(asynqClient, cfg.Queue.MaxRetry)

	// Dispatch orchestrator and deferred-dispatch worker
	renderer := notification.NewRenderer(cfg.Dispatch.Locale, cfg.Dispatch.CurrencyUnit)
	dispatcher := notification.NewDispatcher(
		templateSource,
		notification.NewPreferenceResolver(preferenceSource),
		registry,
		scheduler,
		statusStore,
		renderer,
		time.Duration(cfg.Dispatch.ProviderTimeoutSec)*time.Second,
	)
	notifWorker := notification.NewWorker(dispatcher)

	// ==========================================
	// Asynq Server (task processing)
	// ==========================================

	asynqServer := queue.NewServer(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Queue.Concurrency,
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TaskTypeDeferredDispatch, func(ctx context.Context, task *asynq.Task) error {
		return notifWorker.ProcessTask(ctx, task.Payload())
	})

	// Start the asynq worker in a goroutine
	go func() {
		slog.Info("worker starting",
			"concurrency", cfg.Queue.Concurrency,
			"redis", cfg.Redis.Address,
		)
		if err := asynqServer.Run(mux); err != nil {
			slog.Error("worker failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// ==========================================
	// Expiry Sweeper
	// ==========================================

	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()

	sweeper := notification.NewSweeper(statusStore, notification.SweeperConfig{
		Interval:  time.Duration(cfg.Sweeper.IntervalSec) * time.Second,
		BatchSize: cfg.Sweeper.BatchSize,
	})

	go sweeper.Run(sweeperCtx)

	// ==========================================
	// Graceful Shutdown
	// ==========================================

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	sweeperCancel() // Stop the sweeper first
	asynqServer.Shutdown()
	slog.Info("worker exited gracefully")
}
