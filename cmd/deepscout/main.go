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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/deepscout/deepscout/internal/adapter/duckduckgo"
	"github.com/deepscout/deepscout/internal/adapter/genai"
	dshttp "github.com/deepscout/deepscout/internal/adapter/http"
	"github.com/deepscout/deepscout/internal/adapter/memstore"
	dsnats "github.com/deepscout/deepscout/internal/adapter/nats"
	"github.com/deepscout/deepscout/internal/adapter/natskv"
	dsotel "github.com/deepscout/deepscout/internal/adapter/otel"
	"github.com/deepscout/deepscout/internal/adapter/postgres"
	"github.com/deepscout/deepscout/internal/adapter/ristretto"
	"github.com/deepscout/deepscout/internal/adapter/tiered"
	"github.com/deepscout/deepscout/internal/adapter/webpage"
	"github.com/deepscout/deepscout/internal/adapter/ws"
	"github.com/deepscout/deepscout/internal/config"
	"github.com/deepscout/deepscout/internal/logger"
	"github.com/deepscout/deepscout/internal/port/notifier"
	"github.com/deepscout/deepscout/internal/resilience"
	"github.com/deepscout/deepscout/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"gemini_model", cfg.Gemini.Model,
	)

	ctx := context.Background()

	// --- Telemetry ---
	otelShutdown, err := dsotel.Setup(ctx, cfg.Logging.Service, cfg.Otel.Endpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	metrics, err := dsotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := dsnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// Page cache: in-process L1 over a NATS KV L2.
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()

	l2, err := natskv.New(ctx, queue.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("l2 cache: %w", err)
	}
	pageCache := tiered.New(l1, l2, cfg.Cache.TTL)

	// --- Pipeline adapters ---

	generator, err := genai.New(ctx, cfg.Gemini)
	if err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	generator.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	searcher := duckduckgo.New(cfg.Search)
	extractor := webpage.New(cfg.Scraper, pageCache, cfg.Cache.TTL)

	// --- Services ---

	hub := ws.NewHub()
	events := notifier.Multi{hub, dsnats.NewNotifier(queue)}

	store := memstore.New()
	orch := service.NewOrchestrator(store, generator, searcher, extractor, events, metrics, cfg.Search.ResultsPerSub)
	researchSvc := service.NewResearch(store, orch, queue, cfg.Research.MaxConcurrentTasks)
	userSvc := service.NewUsers(postgres.NewStore(pool))

	// --- HTTP ---

	handlers := dshttp.NewHandlers(researchSvc, userSvc)

	r := chi.NewRouter()

	r.Use(dshttp.CORS(cfg.Server.CORSOrigin))
	r.Use(dshttp.RequestID)
	r.Use(dshttp.Logger)
	r.Use(dshttp.SecurityHeaders)
	r.Use(dsotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", dshttp.HealthHandler(cfg.NATS.URL, hub))
	r.Get("/ws", hub.HandleWS)

	dshttp.MountRoutes(r, handlers)

	if cfg.Server.StaticDir != "" {
		r.NotFound(dshttp.StaticHandler(cfg.Server.StaticDir))
	}

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
