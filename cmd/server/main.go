package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/jyotai/internal"
	"github.com/DukeRupert/jyotai/internal/ai"
	"github.com/DukeRupert/jyotai/internal/ai/anthropic"
	"github.com/DukeRupert/jyotai/internal/ai/gemini"
	aimock "github.com/DukeRupert/jyotai/internal/ai/mock"
	"github.com/DukeRupert/jyotai/internal/ai/openai"
	"github.com/DukeRupert/jyotai/internal/astro"
	"github.com/DukeRupert/jyotai/internal/billing"
	"github.com/DukeRupert/jyotai/internal/handler"
	"github.com/DukeRupert/jyotai/internal/jobs"
	"github.com/DukeRupert/jyotai/internal/metrics"
	"github.com/DukeRupert/jyotai/internal/middleware"
	"github.com/DukeRupert/jyotai/internal/repository"
	"github.com/DukeRupert/jyotai/internal/service"
	"github.com/DukeRupert/jyotai/internal/storage"
	"github.com/DukeRupert/jyotai/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize store
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize language model
	provider, err := newProvider(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("ai provider initialization failed: %w", err)
	}
	provider = ai.Instrument(provider, logger)
	if cfg.AICacheTTL > 0 {
		provider = ai.NewCachedProvider(provider, cfg.AICacheTTL)
	}
	logger.Info("AI provider ready", "provider", provider.Name())

	// Initialize file storage
	fileStore, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize billing
	var billingService billing.Service
	if cfg.BillingEnabled() {
		billingService = billing.NewStripeService(billing.Config{
			SecretKey:      cfg.StripeSecretKey,
			WebhookSecret:  cfg.StripeWebhookSecret,
			PremiumPriceID: cfg.StripePremiumPrice,
		})
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("Stripe billing disabled, checkout and payment verification are unavailable")
	}

	// Initialize services
	entitlements := service.NewEntitlementService(store, logger)
	uploads := service.NewUploadService(fileStore, service.NewImagingProcessor(), logger)
	predictions := service.NewPredictionService(entitlements, store, provider, uploads,
		service.PredictionConfig{AITimeout: cfg.AIRequestTimeout}, logger)
	astroService := service.NewAstroService(astro.NewChartGenerator(), logger)
	galleryService := service.NewGalleryService(store, logger)
	chatService := service.NewChatService(provider, cfg.AIRequestTimeout, logger)
	artifactService := service.NewArtifactService(store, predictions, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	rt := handler.NewRouter()

	handler.NewDocsHandler(astroService, logger).RegisterRoutes(rt)
	handler.NewHealthHandler(store, logger).RegisterRoutes(rt)
	handler.NewPredictionHandler(predictions, logger).RegisterRoutes(rt)
	handler.NewUserHandler(entitlements, billingService, logger).RegisterRoutes(rt)
	handler.NewAstroHandler(astroService, galleryService, logger).RegisterRoutes(rt)
	handler.NewChatHandler(chatService, logger).RegisterRoutes(rt)
	handler.NewArtifactHandler(artifactService, logger).RegisterRoutes(rt)
	handler.NewBillingHandler(billingService, entitlements, cfg.BaseURL, logger).RegisterRoutes(rt)

	// Generated files (local storage only; R2 serves its own URLs)
	if local, ok := fileStore.(*storage.LocalStorage); ok {
		files := http.FileServer(http.Dir(local.BasePath()))
		rt.Mount("GET /files/", http.StripPrefix("/files/", files))
	}

	// Metrics endpoint (protected with Basic Auth if credentials are configured)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	rt.Mount("GET /metrics", metricsAuth.Handler(promhttp.Handler()))
	if cfg.MetricsUsername == "" || cfg.MetricsPassword == "" {
		logger.Warn("Metrics endpoint is unprotected, set METRICS_USERNAME and METRICS_PASSWORD")
	}

	// Per-IP limit on the endpoints that call the language model
	limiter := middleware.NewRateLimiter(cfg.PredictRateLimit, cfg.PredictRateWindow, logger)
	defer limiter.Close()
	rateLimit := middleware.NewRateLimitMiddleware(limiter, logger)

	chain := middleware.Stack(
		metrics.Middleware,
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		middleware.NewSecurityHeadersMiddleware(!cfg.IsDevelopment()).Handler,
		middleware.CORS(cfg.CORSAllowedOrigins, logger),
		middleware.GlobalRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger),
		rateLimit.LimitPaths("/predict", "/ask-gpt"),
	)

	// ==========================================================================
	// Start server and worker
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           chain(rt),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.AIRequestTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "store", cfg.StoreProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if cfg.WorkerEnabled {
		w, err := worker.New(store, worker.Config{
			Concurrency:     cfg.WorkerConcurrency,
			PollInterval:    cfg.WorkerPollInterval,
			JobTimeout:      cfg.WorkerJobTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		w.Register(jobs.NewGenerateReportHandler(predictions, fileStore, logger))
		w.Register(jobs.NewGenerateMemeHandler(predictions, fileStore, logger))

		g.Go(func() error {
			return w.Run(gctx)
		})
	} else {
		logger.Warn("Worker disabled, queued artifacts will stay pending")
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// openStore connects the configured store. For Postgres it applies pending
// migrations before returning.
func openStore(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (repository.Store, func(), error) {
	if cfg.StoreProvider == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemory(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("database ping failed: %w", err)
	}

	// goose works on database/sql; share the pool rather than dialing twice
	db := stdlib.OpenDBFromPool(pool)
	if err := internal.RunMigrations(db); err != nil {
		_ = db.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	_ = db.Close()

	logger.Info("Database ready")
	return repository.NewPostgres(pool), pool.Close, nil
}

func newProvider(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (ai.Provider, error) {
	common := ai.ProviderConfig{
		MaxRetries:     cfg.AIMaxRetries,
		RetryBaseDelay: cfg.AIRetryBaseDelay,
		RequestTimeout: cfg.AIRequestTimeout,
	}

	switch cfg.AIProvider {
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:         cfg.AnthropicAPIKey,
			Model:          cfg.AnthropicModel,
			ProviderConfig: common,
		}, logger)
	case "gemini":
		return gemini.New(ctx, gemini.Config{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			ProviderConfig: common,
		}, logger)
	case "mock":
		logger.Warn("Using mock AI provider, predictions are canned")
		return aimock.New(logger), nil
	default:
		return openai.New(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			ChatModel:      cfg.OpenAIChatModel,
			ProviderConfig: common,
		}, logger)
	}
}

func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.StorageProvider == storage.ProviderR2 {
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	}
	return storage.NewLocalStorage(storage.LocalConfig{
		BasePath: cfg.LocalStoragePath,
		BaseURL:  cfg.LocalStorageURL,
	}, logger)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
