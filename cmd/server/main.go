package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dinenotify/internal/config"
	"dinenotify/internal/domain/notification"
	"dinenotify/internal/infra/provider"
	"dinenotify/internal/infra/queue"
	"dinenotify/internal/infra/ratelimit"
	"dinenotify/internal/infra/store"
	"dinenotify/internal/router"
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

	slog.Info("configuration loaded", "port", cfg.Server.Port, "mode", cfg.Server.Mode)

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

	// Asynq client and deferred-run scheduler
	asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqClient.Close()
	scheduler := queue.NewAsynqScheduler(asynqClient, cfg.Queue.MaxRetry)
	slog.Info("scheduler initialized", "redis", cfg.Redis.Address)

	// Recipient rate limiter
	recipientLimiter := ratelimit.NewRedisRecipientLimiter(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.RecipientRateLimit.MaxPerHour,
	)
	defer recipientLimiter.Close()
	slog.Info("recipient rate limiter initialized", "max_per_hour", cfg.RecipientRateLimit.MaxPerHour)

	// Dispatch orchestrator
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

	// Service and handler
	notificationService := notification.NewService(dispatcher, statusStore, recipientLimiter)
	notificationHandler := notification.NewHandler(notificationService)

	// Router
	r := router.New(cfg, notificationHandler)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
