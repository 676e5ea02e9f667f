package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"multimodal-rag-be/pkg/apperror"

	"github.com/joho/godotenv"
)

const (
	VectorBackendQdrant   = "qdrant"
	VectorBackendPgvector = "pgvector"

	SessionStoreMongo    = "mongo"
	SessionStorePostgres = "postgres"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Vector   VectorConfig
	Ai       AIConfig
	Store    StoreConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	UploadDir          string
	NatsURL            string // empty selects the in-process bus
	RedisURL           string
	Cache              string
	CacheTTL           time.Duration
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection string
}

type MongoConfig struct {
	URI      string
	Database string
}

type VectorConfig struct {
	Backend           string
	QdrantURL         string
	QdrantAPIKey      string
	Dimension         int
	Distance          string
	UploadBatchSize   int
	IndexingThreshold int
	Oversampling      float64
	Rescore           bool
	QueryTimeout      time.Duration
	CollectionPrefix  string
}

type AIConfig struct {
	EmbeddingProvider  string // "ollama" or "jina"
	EmbeddingModel     string
	EmbeddingBatchSize int
	LLMProvider        string // "ollama" or "huggingface"
	LLMModel           string
	VisionModel        string
	TableModel         string
	OllamaBaseURL      string
	JinaAPIKey         string
	HuggingFaceAPIKey  string
	RerankerURL        string
	RerankerModel      string
	RerankThreshold    float64
	TopK               int
	SystemPrompt       string
	MaxPDFImages       int
}

type StoreConfig struct {
	Session string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			Cache:              getEnv("CACHE", CacheMemory),
			CacheTTL:           getEnvAsDuration("CACHE_TTL", time.Hour),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "multimodal_rag"),
		},
		Vector: VectorConfig{
			Backend:           getEnv("VECTOR_STORE", VectorBackendQdrant),
			QdrantURL:         getEnv("QDRANT_URL", "http://localhost:6334"),
			QdrantAPIKey:      getEnv("QDRANT_API_KEY", ""),
			Dimension:         getEnvAsInt("VECTOR_DIMENSION", 768),
			Distance:          getEnv("VECTOR_DISTANCE", "dot"),
			UploadBatchSize:   getEnvAsInt("VECTOR_UPLOAD_BATCH_SIZE", 512),
			IndexingThreshold: getEnvAsInt("VECTOR_INDEXING_THRESHOLD", 20000),
			Oversampling:      getEnvAsFloat("VECTOR_OVERSAMPLING", 2.0),
			Rescore:           getEnvAsBool("VECTOR_RESCORE", true),
			QueryTimeout:      getEnvAsDuration("VECTOR_QUERY_TIMEOUT", 5*time.Second),
			CollectionPrefix:  getEnv("COLLECTION_PREFIX", "multimodal_rag_"),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingBatchSize: getEnvAsInt("EMBEDDING_BATCH_SIZE", 32),
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3.2"),
			VisionModel:        getEnv("VISION_MODEL", "llava"),
			TableModel:         getEnv("TABLE_MODEL", "llama3.2:1b"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			JinaAPIKey:         getEnv("JINA_API_KEY", ""),
			HuggingFaceAPIKey:  getEnv("HUGGINGFACE_API_KEY", ""),
			RerankerURL:        getEnv("RERANKER_URL", "https://router.huggingface.co/hf-inference/models"),
			RerankerModel:      getEnv("RERANKER_MODEL", "BAAI/bge-reranker-base"),
			RerankThreshold:    getEnvAsFloat("RERANK_THRESHOLD", 0.7),
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 10),
			SystemPrompt:       getEnv("SYSTEM_PROMPT", ""),
			MaxPDFImages:       getEnvAsInt("MAX_PDF_IMAGES", 20),
		},
		Store: StoreConfig{
			Session: getEnv("SESSION_STORE", SessionStoreMongo),
		},
	}
}

// Validate rejects malformed settings before any backend is dialed.
func (c *Config) Validate() error {
	switch c.Vector.Backend {
	case VectorBackendQdrant:
		if err := validateURL("QDRANT_URL", c.Vector.QdrantURL); err != nil {
			return err
		}
	case VectorBackendPgvector:
		if c.Database.Connection == "" {
			return configError("DB_CONNECTION_STRING is required for the pgvector store")
		}
	default:
		return configError(fmt.Sprintf("unknown VECTOR_STORE %q", c.Vector.Backend))
	}

	switch c.Store.Session {
	case SessionStoreMongo:
		if c.Mongo.URI == "" {
			return configError("MONGO_URI is required for the mongo session store")
		}
	case SessionStorePostgres:
		if c.Database.Connection == "" {
			return configError("DB_CONNECTION_STRING is required for the postgres session store")
		}
	default:
		return configError(fmt.Sprintf("unknown SESSION_STORE %q", c.Store.Session))
	}

	if c.App.Cache != CacheMemory && c.App.Cache != CacheRedis {
		return configError(fmt.Sprintf("unknown CACHE %q", c.App.Cache))
	}

	if c.Ai.EmbeddingProvider == "ollama" || c.Ai.LLMProvider == "ollama" {
		if err := validateURL("OLLAMA_BASE_URL", c.Ai.OllamaBaseURL); err != nil {
			return err
		}
	}
	if err := validateURL("RERANKER_URL", c.Ai.RerankerURL); err != nil {
		return err
	}

	if c.Vector.Dimension <= 0 {
		return configError("VECTOR_DIMENSION must be positive")
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return apperror.Wrap(apperror.ErrConfiguration, "config.Validate", fmt.Errorf("%s: %w", key, err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return configError(fmt.Sprintf("%s must be an http(s) URL, got %q", key, raw))
	}
	return nil
}

func configError(msg string) error {
	return apperror.New(apperror.ErrConfiguration, "config.Validate", msg)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
