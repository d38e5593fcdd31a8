package bootstrap

import (
	"context"
	"log"

	"ai-qa-platform-be/internal/config"
	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/internal/repository/implementation"
	"ai-qa-platform-be/internal/service"
	"ai-qa-platform-be/pkg/embedding"
	"ai-qa-platform-be/pkg/events"
	"ai-qa-platform-be/pkg/llm/factory"
	"ai-qa-platform-be/pkg/resolve"
	"ai-qa-platform-be/pkg/resolve/matcher"
	"ai-qa-platform-be/pkg/resolve/response"
	"ai-qa-platform-be/pkg/resolve/retrieval"
	"ai-qa-platform-be/pkg/resolve/websearch"

	pktNats "ai-qa-platform-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Container struct {
	ApplicationService service.IApplicationService
	FixedQAService     service.IFixedQAService
	KnowledgeService   service.IKnowledgeService
	InferenceService   service.IInferenceService

	// Background services, run from main.
	ConsumerService service.IConsumerService

	Logger          logger.ILogger
	EventPublisher  *pktNats.Publisher
	EventSubscriber *pktNats.Subscriber
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Repositories
	applicationRepo := implementation.NewApplicationRepository(db)
	fixedQARepo := implementation.NewFixedQARepository(db)
	knowledgeBaseRepo := implementation.NewKnowledgeBaseRepository(db)
	knowledgeChunkRepo := implementation.NewKnowledgeChunkRepository(db)

	// In-process event bus for embed jobs
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Embedding provider
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// LLM provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Cross-node event bus (optional; nil publisher disables it)
	var eventPublisher *pktNats.Publisher
	var eventSubscriber *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		eventPublisher, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] NATS publisher unavailable: %v", err)
		}
		eventSubscriber, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] NATS subscriber unavailable: %v", err)
		}
	}

	// Resolution pipeline
	entryCache := embedding.NewEntryCache(embeddingProvider)
	qaMatcher := matcher.NewMatcher(entryCache, sysLogger)
	retriever := retrieval.NewRetriever(knowledgeChunkRepo, sysLogger)
	generator := response.NewGenerator(llmProvider, sysLogger)

	var searchProvider websearch.Provider
	if cfg.Keys.Tavily != "" {
		searchProvider = websearch.NewTavilyClient(cfg.Keys.Tavily, sysLogger)
	}

	resolver := resolve.NewResolver(
		embeddingProvider,
		qaMatcher,
		retriever,
		searchProvider,
		generator,
		sysLogger,
		cfg.App.StageTimeout,
	)

	// Services
	publisherService := service.NewPublisherService(cfg.App.EmbedQATopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.EmbedQATopic,
		fixedQARepo,
		embeddingProvider,
		eventPublisher,
		sysLogger,
	)

	inferenceService := service.NewInferenceService(
		applicationRepo,
		fixedQARepo,
		knowledgeBaseRepo,
		resolver,
		cfg.App.ConfigCacheTTL,
		sysLogger,
	)
	applicationService := service.NewApplicationService(
		applicationRepo,
		inferenceService,
		eventPublisher,
		sysLogger,
	)
	fixedQAService := service.NewFixedQAService(fixedQARepo, publisherService, sysLogger)
	knowledgeService := service.NewKnowledgeService(
		knowledgeBaseRepo,
		knowledgeChunkRepo,
		embeddingProvider,
		sysLogger,
	)

	// Config changes on other nodes invalidate the local cache.
	if eventSubscriber != nil {
		err := eventSubscriber.Subscribe(events.TypeAppConfigChanged, "config-cache", func(ctx context.Context, evt events.Event) error {
			raw, ok := evt.Payload()["application_id"].(string)
			if !ok {
				return nil
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil
			}
			inferenceService.InvalidateConfig(id)
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to config change events: %v", err)
		}
	}

	return &Container{
		ApplicationService: applicationService,
		FixedQAService:     fixedQAService,
		KnowledgeService:   knowledgeService,
		InferenceService:   inferenceService,
		ConsumerService:    consumerService,
		Logger:             sysLogger,
		EventPublisher:     eventPublisher,
		EventSubscriber:    eventSubscriber,
	}
}
