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

	"github.com/verifix/backend/internal/adapters/cache"
	"github.com/verifix/backend/internal/adapters/database"
	"github.com/verifix/backend/internal/adapters/events"
	"github.com/verifix/backend/internal/adapters/research"
	"github.com/verifix/backend/internal/adapters/search"
	"github.com/verifix/backend/internal/api/handlers"
	"github.com/verifix/backend/internal/api/middleware"
	"github.com/verifix/backend/internal/api/routes"
	"github.com/verifix/backend/internal/application/services"
	"github.com/verifix/backend/internal/domain/providers"
	"github.com/verifix/backend/internal/domain/repositories"
	"github.com/verifix/backend/internal/infrastructure/clients/openai"
	"github.com/verifix/backend/internal/infrastructure/clients/postgres"
	"github.com/verifix/backend/internal/infrastructure/clients/redis"
	"github.com/verifix/backend/internal/infrastructure/clients/typesense"
	"github.com/verifix/backend/internal/infrastructure/observability"
	"github.com/verifix/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - caching and live events degrade to polling
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client and ensure the question collection exists
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Fatalf("Failed to initialize Typesense client: %v", err)
	}
	if err := typesenseClient.InitSchema(ctx, cfg.Embedding.Dimension); err != nil {
		log.Printf("Warning: Failed to init Typesense schema: %v", err)
	}
	log.Println("Typesense client initialized successfully")

	// Initialize LLM and embedding clients
	llmClient, err := openai.NewClient(&cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	embeddingClient, err := openai.NewEmbeddingClient(&cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to initialize embedding client: %v", err)
	}

	researcherFactory, err := research.NewHTTPResearcherFactory(&cfg.Research)
	if err != nil {
		log.Fatalf("Failed to initialize research agent client: %v", err)
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for investigation status updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available); status streams fall back to polling")
	}

	// Initialize adapters

	// Create base solution adapter
	baseSolutionAdapter := database.NewSolutionAdapter(pgClient)

	// Wrap with caching if Redis is available (for read performance optimization)
	var solutionAdapter repositories.SolutionRepository
	if cacheProvider != nil {
		solutionAdapter = database.NewCachedSolutionAdapter(baseSolutionAdapter, cacheProvider)
		log.Println("Solution adapter wrapped with caching layer")
	} else {
		solutionAdapter = baseSolutionAdapter
		log.Println("Solution adapter running without cache (Redis unavailable)")
	}

	questionAdapter := database.NewQuestionAdapter(pgClient)
	inventoryAdapter := database.NewInventoryAdapter(pgClient)
	questionIndex := search.NewTypesenseAdapter(typesenseClient)

	// Initialize services
	normalizerService := services.NewNormalizerService(llmClient)
	retrievalService := services.NewRetrievalService(embeddingClient, questionIndex, &cfg.Retrieval)
	extractionService := services.NewExtractionService(llmClient)
	confidenceService := services.NewConfidenceService(llmClient)
	inventoryService := services.NewInventoryService(inventoryAdapter, llmClient)
	chatService := services.NewChatService(solutionAdapter, llmClient)

	solutionService := services.NewSolutionService(
		solutionAdapter,
		questionAdapter,
		inventoryAdapter,
		retrievalService,
		embeddingClient,
		questionIndex,
	)

	investigationService := services.NewInvestigationService(
		solutionAdapter,
		questionAdapter,
		researcherFactory,
		extractionService,
		confidenceService,
		inventoryService,
		embeddingClient,
		questionIndex,
		eventBus,
	)

	// Initialize cache invalidation service
	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(eventBus, cacheProvider)
		if err := cacheInvalidationService.Start(ctx); err != nil {
			log.Printf("Warning: Failed to start cache invalidation service: %v", err)
		} else {
			log.Println("Cache invalidation service started successfully")
		}
	}

	// Initialize handlers
	askHandler := handlers.NewAskHandler(normalizerService, retrievalService)
	solutionHandler := handlers.NewSolutionHandler(normalizerService, solutionService, inventoryService)
	investigationHandler := handlers.NewInvestigationHandler(normalizerService, investigationService)
	chatHandler := handlers.NewChatHandler(chatService)
	sseHandler := handlers.NewSSEHandler(eventBus, solutionAdapter, inventoryAdapter)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		askHandler,
		solutionHandler,
		investigationHandler,
		chatHandler,
		sseHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server. WriteTimeout stays unset so long-lived status
	// streams are not cut off mid-investigation.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	// Stop cache invalidation service
	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	log.Println("Server stopped")
}
