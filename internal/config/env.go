package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	DatabaseURLKey string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string
	AIAPIKey       string
	AIAPIKeyName   string
	EmbedModel     string
	EmbedDim       int
	GenModel       string
	JWTSecret      string
	Port           string
	LogLevel       string

	ChunkSize     int
	ChunkOverlap  int
	BatchSize     int
	MaxRetries    int
	BaseDelayMs   int
	TopK          int
	CandidatePool int
	IngestWorkers int
}

// LoadConfig loads the environment variables and returns config.
// DATABASE_URL and GEMINI_API_KEY may be left empty when the SSM parameter
// names are set; the app resolves them through the parameter cache at startup.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabaseURLKey: getEnv("DATABASE_URL_PARAM", "/mindMesh/databaseURL"),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "us-east-2"),
		BucketName:     getEnv("BUCKET_NAME", "mindmesh-docs"),
		AIAPIKey:       getEnv("GEMINI_API_KEY", ""),
		AIAPIKeyName:   getEnv("GEMINI_API_KEY_PARAM", "/mindMesh/geminiAPIKey"),
		EmbedModel:     getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:       getEnvInt("EMBED_DIM", 768),
		GenModel:       getEnv("GEN_MODEL", "gemini-2.0-flash-exp"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		ChunkSize:     getEnvInt("CHUNK_SIZE", 60),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 10),
		BatchSize:     getEnvInt("EMBED_BATCH_SIZE", 300),
		MaxRetries:    getEnvInt("EMBED_MAX_RETRIES", 3),
		BaseDelayMs:   getEnvInt("EMBED_BASE_DELAY_MS", 1000),
		TopK:          getEnvInt("RETRIEVAL_TOP_K", 5),
		CandidatePool: getEnvInt("RETRIEVAL_CANDIDATE_POOL", 100),
		IngestWorkers: getEnvInt("INGEST_WORKERS", 4),
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		log.Fatalf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
