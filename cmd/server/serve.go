package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"disaster-bot/internal/config"
	"disaster-bot/internal/database"
	"disaster-bot/internal/handlers"
	"disaster-bot/internal/llm"
	"disaster-bot/internal/middleware"
	"disaster-bot/internal/repository"
	"disaster-bot/internal/router"
	"disaster-bot/internal/services"
	"disaster-bot/internal/websocket"
	"disaster-bot/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, live feed, triage workers and alert sweeper",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("🚀 Starting Disaster Management Bot API...")
	ctx := context.Background()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	disasterRepo := repository.NewDisasterRepo(pool)
	alertRepo := repository.NewAlertRepo(pool)
	resourceRepo := repository.NewResourceRepo(pool)
	reportRepo := repository.NewReportRepo(pool)

	// ──── Step 5: Initialize LLM Provider ────
	provider, model, closeProvider, err := newProvider(ctx, cfg)
	if err != nil {
		log.Printf("✗ LLM provider initialization failed, chat will serve fallback replies: %v", err)
		provider, model, closeProvider = unavailableProvider(cfg, err)
	} else {
		log.Printf("✓ LLM provider initialized (%s, model %s)", cfg.LLMProvider, model)
	}
	defer closeProvider()

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	limited := llm.NewLimited(provider, cfg.LLMConcurrentReqs, cfg.LLMTimeout)
	chatCache := services.NewRedisResponseCache(redisClients.Queue, cfg.ChatCacheTTL)
	chatService := services.NewChatService(limited, model, chatCache)
	publisher := services.NewAlertPublisher(redisClients.Queue)
	triageQueue := worker.NewQueue(redisClients.Queue)

	// ──── Initialize Handlers ────
	chatbotHandler := handlers.NewChatbotHandler(chatService)
	alertHandler := handlers.NewAlertHandler(alertRepo, publisher)
	disasterHandler := handlers.NewDisasterHandler(disasterRepo)
	resourceHandler := handlers.NewResourceHandler(resourceRepo)
	reportHandler := handlers.NewReportHandler(reportRepo, triageQueue)
	statsHandler := handlers.NewStatsHandler(disasterRepo, resourceRepo, alertRepo)

	// ──── Step 6: Start Report Triage Workers ────
	workerPool := worker.NewPool(redisClients.Queue, reportRepo, disasterRepo, alertRepo, publisher, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	sweeper := services.NewAlertSweeper(alertRepo, cfg.AlertSweepSchedule)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("✗ Alert sweeper failed to start: %v", err)
	}
	log.Println("✓ Alert sweeper started")

	// ──── Step 7: Start Live Alert Hub ────
	hubCtx, stopHub := context.WithCancel(ctx)
	wsHub := websocket.NewHub(redisClients.PubSub, services.LiveAlertsChannel)
	go wsHub.Run(hubCtx)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		chatbotHandler,
		alertHandler,
		disasterHandler,
		resourceHandler,
		reportHandler,
		statsHandler,
		wsHub,
		cfg.FrontendURL,
		cfg.ChatRateLimitPerMin,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // LLM timeout plus waiting for a slot
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		stopHub()
		workerPool.Stop()
		sweeper.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Disaster Management Bot API ready on http://localhost:%s", cfg.Port)
	log.Printf("  Chat: http://localhost:%s/bot/v1/message", cfg.Port)
	log.Printf("  API:  http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:   ws://localhost:%s/api/v1/alerts/live", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	return nil
}

// newProvider builds the configured chat-completion backend and returns the
// model name to request from it.
func newProvider(ctx context.Context, cfg *config.Config) (llm.Provider, string, func(), error) {
	switch cfg.LLMProvider {
	case "gemini":
		g, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, "", nil, err
		}
		return g, cfg.GeminiModel, g.Close, nil
	case "openrouter", "openai":
		c, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey,
			llm.WithBaseURL(cfg.OpenAIBaseURL),
			llm.WithHeader("HTTP-Referer", cfg.OpenAIHTTPReferer),
			llm.WithHeader("X-Title", cfg.OpenAIXTitle),
		)
		if err != nil {
			return nil, "", nil, err
		}
		return c, cfg.OpenAIModel, func() {}, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown LLM_PROVIDER %q (want openrouter or gemini)", cfg.LLMProvider)
	}
}

// unavailableProvider keeps the API up when the chat backend cannot be built.
func unavailableProvider(cfg *config.Config, cause error) (llm.Provider, string, func()) {
	if cfg.LLMProvider == "gemini" {
		return llm.NewUnavailable(llm.GeminiBaseURL, cause), cfg.GeminiModel, func() {}
	}
	return llm.NewUnavailable(cfg.OpenAIBaseURL, cause), cfg.OpenAIModel, func() {}
}
