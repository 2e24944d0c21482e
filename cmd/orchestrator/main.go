package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pathwise/ai-orchestrator/internal/orchestrator"
	"github.com/pathwise/ai-orchestrator/internal/orchestrator/audit"
	"github.com/pathwise/ai-orchestrator/internal/orchestrator/handlers"
	"github.com/pathwise/ai-orchestrator/internal/orchestrator/providers"
	"github.com/pathwise/ai-orchestrator/internal/orchestrator/ratelimit"
	"github.com/pathwise/ai-orchestrator/internal/orchestrator/retry"
	"github.com/pathwise/ai-orchestrator/internal/shared/config"
	"github.com/pathwise/ai-orchestrator/internal/shared/database"
	"github.com/pathwise/ai-orchestrator/internal/shared/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting AI orchestrator on port %s (env: %s)", cfg.Port, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audit store: optional, the logger degrades to diagnostics without it.
	var auditStore audit.Store
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		auditStore = db
		log.Println("✓ Connected to PostgreSQL")
	} else {
		log.Println("! DATABASE_URL not set, audit records go to process log only")
	}

	// Rate-window store: Redis in any multi-instance deployment. The
	// in-memory fallback is only safe for a single instance.
	var rateStore ratelimit.Store
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("! Redis unavailable (%v), using in-memory rate windows (single instance only)", err)
		rateStore = ratelimit.NewMemoryStore()
	} else {
		defer redisClient.Close()
		rateStore = redisClient
		log.Println("✓ Connected to Redis")
	}

	// Providers: either may be absent; the engine degrades accordingly.
	var primary, secondary providers.Provider
	if cfg.OpenAIAPIKey != "" {
		primary = providers.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.ProviderTimeout)
		log.Printf("✓ Primary provider configured (openai, %s)", cfg.OpenAIModel)
	}
	if cfg.GeminiAPIKey != "" {
		secondary = providers.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ProviderTimeout)
		log.Printf("✓ Secondary provider configured (gemini, %s)", cfg.GeminiModel)
	}
	if primary == nil && secondary == nil {
		log.Println("! No provider API keys configured, every call will fail descriptively")
	}

	engine := orchestrator.New(
		primary,
		secondary,
		ratelimit.New(rateStore, cfg.RateLimitPerMinute),
		audit.New(auditStore),
		retry.Options{MaxAttempts: cfg.RetryMaxAttempts, BaseDelay: cfg.RetryBaseDelay},
	)

	generateHandler := handlers.NewGenerateHandler(engine)

	// Setup router
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(handlers.CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", generateHandler.HandleGenerate)
		r.Post("/generate-text", generateHandler.HandleGenerateText)
		r.Get("/availability", generateHandler.HandleAvailability)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server listening on http://localhost:%s", cfg.Port)
		log.Println("   POST /v1/generate       - Orchestrated chat completion")
		log.Println("   POST /v1/generate-text  - Single-prompt convenience wrapper")
		log.Println("   GET  /v1/availability   - Provider availability")
		log.Println("   GET  /health            - Health check")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
