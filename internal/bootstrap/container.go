package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"multimodal-rag-be/internal/config"
	"multimodal-rag-be/internal/controller"
	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/internal/repository/contract"
	"multimodal-rag-be/internal/repository/implementation"
	"multimodal-rag-be/internal/repository/memory"
	"multimodal-rag-be/internal/repository/mongostore"
	"multimodal-rag-be/internal/repository/redisstore"
	"multimodal-rag-be/internal/service"
	"multimodal-rag-be/pkg/chatbot"
	"multimodal-rag-be/pkg/database"
	"multimodal-rag-be/pkg/embedding"
	"multimodal-rag-be/pkg/embedding/jina"
	"multimodal-rag-be/pkg/events"
	"multimodal-rag-be/pkg/extract"
	"multimodal-rag-be/pkg/llm/factory"
	pktNats "multimodal-rag-be/pkg/nats"
	"multimodal-rag-be/pkg/rag"
	"multimodal-rag-be/pkg/rag/prompt"
	"multimodal-rag-be/pkg/rag/rerank"
	hfrerank "multimodal-rag-be/pkg/rag/rerank/huggingface"
	"multimodal-rag-be/pkg/rag/search"
	"multimodal-rag-be/pkg/rag/session"
	"multimodal-rag-be/pkg/vectorstore"
	"multimodal-rag-be/pkg/vectorstore/pgvector"
	"multimodal-rag-be/pkg/vectorstore/qdrant"

	"github.com/ollama/ollama/api"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController
	FileController    controller.IFileController
	AdminController   controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ActivityConsumer service.IActivityConsumer

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger
	c.onClose(func() { _ = sysLogger.Sync() })

	var gormDB *gorm.DB
	openDB := func() (*gorm.DB, error) {
		if gormDB != nil {
			return gormDB, nil
		}
		db, err := database.Open(cfg.Database.Connection, cfg.App.Environment != "production", database.DefaultPoolConfig())
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			c.onClose(func() { _ = sqlDB.Close() })
		}
		gormDB = db
		return db, nil
	}

	// 2. Event Bus
	bus, subscriber, err := c.newEventBus(cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	publisher := service.NewActivityPublisher(bus, sysLogger)
	c.ActivityConsumer = service.NewActivityConsumer(subscriber, pktNats.SubjectPrefix+">", sysLogger)

	// 3. AI Providers
	ollamaURL, err := url.Parse(cfg.Ai.OllamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	ollamaClient := api.NewClient(ollamaURL, http.DefaultClient)

	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "jina":
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaAPIKey, "", cfg.Ai.EmbeddingModel)
	default:
		embeddingProvider = embedding.NewOllamaProvider(ollamaClient, cfg.Ai.EmbeddingModel)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)
	batcher := embedding.NewBatcher(embeddingProvider, cfg.Ai.EmbeddingBatchSize)

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, ollamaClient, cfg.Ai.HuggingFaceAPIKey)
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	agent := chatbot.NewAgent(llmProvider, chatbot.AgentConfig{
		ChatModel:   cfg.Ai.LLMModel,
		VisionModel: cfg.Ai.VisionModel,
		TableModel:  cfg.Ai.TableModel,
	})

	// 4. Vector Index
	var backend vectorstore.Backend
	switch cfg.Vector.Backend {
	case config.VectorBackendPgvector:
		db, err := openDB()
		if err != nil {
			return nil, err
		}
		pg := pgvector.New(db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		backend = pg
	default:
		qb, err := qdrant.New(cfg.Vector.QdrantURL, cfg.Vector.QdrantAPIKey)
		if err != nil {
			return nil, err
		}
		c.onClose(func() { _ = qb.Close() })
		backend = qb
	}
	index := vectorstore.NewIndex(backend, vectorstore.Config{
		Dimension:         cfg.Vector.Dimension,
		Distance:          vectorstore.Distance(cfg.Vector.Distance),
		OnDisk:            true,
		SegmentNumber:     vectorstore.DefaultConfig().SegmentNumber,
		UploadBatchSize:   cfg.Vector.UploadBatchSize,
		IndexingThreshold: cfg.Vector.IndexingThreshold,
		Oversampling:      cfg.Vector.Oversampling,
		Rescore:           cfg.Vector.Rescore,
		QueryTimeout:      cfg.Vector.QueryTimeout,
		CollectionPrefix:  cfg.Vector.CollectionPrefix,
	}, sysLogger)

	// 5. Retrieval
	retriever := search.NewRetriever(batcher, sysLogger)
	scorer := hfrerank.NewScorer(cfg.Ai.HuggingFaceAPIKey, cfg.Ai.RerankerURL, cfg.Ai.RerankerModel)
	reranker := rerank.NewReranker(scorer, float32(cfg.Ai.RerankThreshold), sysLogger)
	orchestrator := rag.NewOrchestrator(retriever, reranker, prompt.NewQABuilder(prompt.QAVersion), cfg.Ai.TopK, sysLogger)

	extractCfg := extract.DefaultConfig()
	extractCfg.MaxPDFImages = cfg.Ai.MaxPDFImages
	extractor := extract.NewExtractor(agent, extractCfg, sysLogger)

	// 6. Session + File Stores
	sessionRepo, fileRepo, err := c.newRepositories(ctx, cfg, openDB)
	if err != nil {
		return nil, err
	}
	stateCache, err := c.newStateCache(ctx, cfg, sysLogger)
	if err != nil {
		return nil, err
	}

	systemPrompt := cfg.Ai.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = chatbot.DefaultSystemPrompt
	}
	sessions := session.NewStore(sessionRepo, stateCache, systemPrompt, sysLogger)

	// 7. Services
	chatbotService := service.NewChatbotService(sessions, agent, orchestrator, index, publisher, sysLogger)
	fileService := service.NewFileService(fileRepo, extractor, batcher, index, cfg.App.UploadDir, publisher, sysLogger)
	adminService := service.NewAdminService(sysLogger)

	// 8. Controllers
	c.ChatbotController = controller.NewChatbotController(chatbotService)
	c.FileController = controller.NewFileController(fileService)
	c.AdminController = controller.NewAdminController(adminService, fileService)

	ok = true
	return c, nil
}

// newEventBus prefers JetStream and falls back to the in-process bus when
// NATS_URL is empty.
func (c *Container) newEventBus(cfg *config.Config, sysLogger logger.ILogger) (events.Publisher, events.Subscriber, error) {
	if cfg.App.NatsURL == "" {
		local := events.NewLocalBus()
		c.onClose(func() { _ = local.Close() })
		log.Printf("[INFO] Using in-process event bus")
		return local, local, nil
	}

	pub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		return nil, nil, err
	}
	c.onClose(pub.Close)

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		return nil, nil, err
	}
	c.onClose(sub.Close)

	log.Printf("[INFO] Using NATS event bus (%s)", cfg.App.NatsURL)
	return pub, sub, nil
}

func (c *Container) newRepositories(
	ctx context.Context,
	cfg *config.Config,
	openDB func() (*gorm.DB, error),
) (contract.UserSessionRepository, contract.FileRepository, error) {
	if cfg.Store.Session == config.SessionStorePostgres {
		db, err := openDB()
		if err != nil {
			return nil, nil, err
		}
		if err := implementation.AutoMigrate(db); err != nil {
			return nil, nil, err
		}
		return implementation.NewUserSessionRepository(db), implementation.NewFileRepository(db), nil
	}

	client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, nil, err
	}
	c.onClose(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database(cfg.Mongo.Database)
	return mongostore.NewUserSessionRepository(db), mongostore.NewFileRepository(db), nil
}

func (c *Container) newStateCache(ctx context.Context, cfg *config.Config, sysLogger logger.ILogger) (contract.UserStateCache, error) {
	if cfg.App.Cache != config.CacheRedis {
		return memory.NewStateCache(cfg.App.CacheTTL, 0), nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	c.onClose(func() { _ = rdb.Close() })
	return redisstore.NewStateCache(rdb, cfg.App.CacheTTL, sysLogger), nil
}

func (c *Container) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
