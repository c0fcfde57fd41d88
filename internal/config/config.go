package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Ingestion IngestionConfig
	Retrieval RetrievalConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	ProcessTopic string // Document ingestion topic
}

type AIConfig struct {
	EmbeddingProvider  string // "gemini" or "ollama"
	EmbeddingDimension int
	OllamaBaseURL      string
	OllamaModel        string
	LLMProvider        string // "ollama" or "none"
	LLMModel           string // e.g. "llama3", "qwen2.5"
}

type IngestionConfig struct {
	BatchSize int
}

type RetrievalConfig struct {
	StaticThreshold float64
	DynamicValue    float64
	DynamicStrategy string // "pct" or "offset"
	TopK            int
	NumRetrieveDocs int
	HistoryWindow   int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			ProcessTopic: getEnv("PROCESS_DOCUMENT_TOPIC_NAME", "PROCESS_DOCUMENT"),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:        getEnv("LLM_PROVIDER", "none"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
		},
		Ingestion: IngestionConfig{
			BatchSize: getEnvAsInt("INGEST_BATCH_SIZE", 4),
		},
		Retrieval: RetrievalConfig{
			StaticThreshold: getEnvAsFloat("STATIC_SCORE_THRESHOLD", 0.5),
			DynamicValue:    getEnvAsFloat("DYNAMIC_SCORE_THRESHOLD", 0.15),
			DynamicStrategy: getEnv("DYNAMIC_SCORE_THRESHOLD_STRATEGY", "pct"),
			TopK:            getEnvAsInt("SEARCH_TOP_K", 5),
			NumRetrieveDocs: getEnvAsInt("NUM_RETRIEVE_DOCS", 5),
			HistoryWindow:   getEnvAsInt("RETRIEVAL_HISTORY_WINDOW", 10),
		},
	}

	validate(cfg)
	return cfg
}

// validate fails fast on configuration the pipeline cannot run without.
// Anything wrong here must surface at startup, never at request time.
func validate(cfg *Config) {
	if cfg.Ai.EmbeddingDimension <= 0 {
		log.Fatalf("[FATAL] EMBEDDING_DIMENSION must be a positive integer, got %d", cfg.Ai.EmbeddingDimension)
	}
	if cfg.Ingestion.BatchSize <= 0 {
		log.Fatalf("[FATAL] INGEST_BATCH_SIZE must be a positive integer, got %d", cfg.Ingestion.BatchSize)
	}
	if cfg.Retrieval.NumRetrieveDocs <= 0 {
		log.Fatalf("[FATAL] NUM_RETRIEVE_DOCS must be a positive integer, got %d", cfg.Retrieval.NumRetrieveDocs)
	}
	if cfg.Retrieval.TopK <= 0 {
		log.Fatalf("[FATAL] SEARCH_TOP_K must be a positive integer, got %d", cfg.Retrieval.TopK)
	}
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
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
