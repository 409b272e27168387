// Package app wires configuration, clients, services, and the HTTP server
// into one runnable unit.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/markdave123-py/MindMesh/internal/config"
	db "github.com/markdave123-py/MindMesh/internal/core/database"
	"github.com/markdave123-py/MindMesh/internal/core/errs"
	"github.com/markdave123-py/MindMesh/internal/core/llm"
	objectclient "github.com/markdave123-py/MindMesh/internal/core/object-client"
	"github.com/markdave123-py/MindMesh/internal/core/pipeline"
	"github.com/markdave123-py/MindMesh/internal/core/retrieval"
	"github.com/markdave123-py/MindMesh/internal/core/retry"
	"github.com/markdave123-py/MindMesh/internal/services"
)

type App struct {
	Config   *config.Config
	DB       *db.DatabaseClient
	Object   *objectclient.S3Client
	Embedder *llm.GeminiEmbedder
	LLM      *llm.GeminiLLM
	Ingestor *pipeline.DocumentIngestor
	Server   *Server

	logger *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if err := resolveSecrets(appCtx, cfg); err != nil {
		return nil, err
	}

	dbClient, err := db.NewDatabaseClient(appCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	logger.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, objectclient.S3Config{
		AccessKey: cfg.AwsAccessKey,
		SecretKey: cfg.AwsSecretKey,
		Region:    cfg.AwsRegion,
		Bucket:    cfg.BucketName,
	})
	if err != nil {
		return nil, fmt.Errorf("init object client: %w", err)
	}
	logger.Info("object client initialized and ready")

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel, cfg.EmbedDim)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}

	fileCache := llm.NewFileHandleCache(llmProvider.Client(), dbClient, objClient)

	policy := retry.NewPolicy(cfg.MaxRetries, time.Duration(cfg.BaseDelayMs)*time.Millisecond, errs.IsRetryable)
	batcher := pipeline.NewBatchProcessor(dbClient, embedder, policy, logger)
	ingestor := pipeline.NewDocumentIngestor(dbClient, objClient, batcher, pipeline.Config{
		ChunkSize: cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
		BatchSize: cfg.BatchSize,
	}, logger)

	engine := retrieval.NewEngine(dbClient, embedder, logger)
	engine.TopK = cfg.TopK
	engine.CandidatePool = cfg.CandidatePool

	users := services.NewUserService(dbClient)
	docs := services.NewDocumentService(dbClient, objClient, ingestor, cfg.BucketName, logger)
	ai := services.NewAIService(docs, engine, llmProvider, fileCache, logger)

	server := NewServer(cfg, users, docs, ai, ingestor, logger)

	return &App{
		Config:   cfg,
		DB:       dbClient,
		Object:   objClient,
		Embedder: embedder,
		LLM:      llmProvider,
		Ingestor: ingestor,
		Server:   server,
		logger:   logger,
	}, nil
}

// resolveSecrets fills DATABASE_URL and the Gemini key from the parameter
// store when they were not set directly in the environment.
func resolveSecrets(ctx context.Context, cfg *config.Config) error {
	if cfg.DatabaseURL != "" && cfg.AIAPIKey != "" {
		return nil
	}

	awsCfg, err := objectclient.AWSConfig(ctx, cfg.AwsAccessKey, cfg.AwsSecretKey, cfg.AwsRegion)
	if err != nil {
		return fmt.Errorf("load aws config for parameter store: %w", err)
	}
	params := config.NewParamCache(ssm.NewFromConfig(awsCfg))

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL, err = params.Get(ctx, cfg.DatabaseURLKey)
		if err != nil {
			return fmt.Errorf("resolve database url: %w", err)
		}
	}
	if cfg.AIAPIKey == "" {
		cfg.AIAPIKey, err = params.Get(ctx, cfg.AIAPIKeyName)
		if err != nil {
			return fmt.Errorf("resolve ai api key: %w", err)
		}
	}
	return nil
}

// Start launches the ingest workers and the HTTP server. Blocks until the
// server stops.
func (a *App) Start(ctx context.Context) error {
	a.Ingestor.Start(ctx, a.Config.IngestWorkers)
	return a.Server.Start()
}

func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
}
