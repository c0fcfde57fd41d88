package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-docsearch-be/internal/config"
	"ai-docsearch-be/internal/controller"
	"ai-docsearch-be/internal/handler"
	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/internal/repository/memory"
	"ai-docsearch-be/internal/repository/unitofwork"
	"ai-docsearch-be/internal/service"
	"ai-docsearch-be/internal/websocket"
	"ai-docsearch-be/pkg/chunker"
	"ai-docsearch-be/pkg/embedding"
	"ai-docsearch-be/pkg/llm/factory"
	pktNats "ai-docsearch-be/pkg/nats"
	"ai-docsearch-be/pkg/rag/search"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController  controller.IDocumentController
	RetrievalController controller.IRetrievalController

	// Background Services (Exposed for main.go to run)
	IngestionService service.IIngestionService

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
			cfg.Ai.EmbeddingDimension,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingDimension)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	if llmProvider != nil {
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	}

	strategy, err := search.ParseStrategy(cfg.Retrieval.DynamicStrategy)
	if err != nil {
		log.Fatalf("[FATAL] Invalid DYNAMIC_SCORE_THRESHOLD_STRATEGY: %v", err)
	}
	dynamic := search.DynamicThreshold{Kind: strategy, Value: cfg.Retrieval.DynamicValue}

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/progress.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	progressCache := memory.NewProgressCache(2 * time.Second)

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.ProcessTopic)
	ingestionService := service.NewIngestionService(
		pubSub,
		cfg.Keys.ProcessTopic,
		uowFactory,
		embeddingProvider,
		llmProvider,
		chunker.DefaultConfig(),
		cfg.Ingestion.BatchSize,
		wsHub,
		natsPub,
		progressCache,
	)

	documentService := service.NewDocumentService(
		uowFactory,
		publisherService,
		natsPub,
		progressCache,
		cfg.App.UploadDir,
	)
	retrievalService := service.NewRetrievalService(
		uowFactory,
		embeddingProvider,
		cfg.Retrieval.StaticThreshold,
		dynamic,
		cfg.Retrieval.TopK,
		cfg.Retrieval.NumRetrieveDocs,
		cfg.Retrieval.HistoryWindow,
	)

	// 6. Controllers & Handlers
	return &Container{
		DocumentController:  controller.NewDocumentController(documentService),
		RetrievalController: controller.NewRetrievalController(retrievalService),
		IngestionService:    ingestionService,
		ProgressHandler:     handler.NewProgressHandler(wsHub, sysLogger),
		WebSocketHub:        wsHub,
	}
}
