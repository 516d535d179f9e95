package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/common"
	"github.com/ternarybob/syllabus/internal/handlers"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/services/chat"
	"github.com/ternarybob/syllabus/internal/services/documents"
	"github.com/ternarybob/syllabus/internal/services/embeddings"
	"github.com/ternarybob/syllabus/internal/services/llm"
	"github.com/ternarybob/syllabus/internal/services/metrics"
	"github.com/ternarybob/syllabus/internal/services/sessions"
	"github.com/ternarybob/syllabus/internal/services/tools"
	"github.com/ternarybob/syllabus/internal/services/vectorstore"
	"github.com/ternarybob/syllabus/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Retrieval
	Embedder interfaces.EmbeddingService
	Store    *vectorstore.Store
	Registry *tools.Registry

	// Generation
	CompletionService interfaces.CompletionService
	Generator         *chat.Generator
	Sessions          *sessions.Manager
	Processor         *documents.Processor
	QueryService      *chat.QueryService
	Metrics           *metrics.Metrics

	// HTTP handlers
	APIHandler   *handlers.APIHandler
	QueryHandler *handlers.QueryHandler
	WSHandler    *handlers.WebSocketHandler
}

// New initializes the application. A missing Anthropic API key is not fatal:
// ingestion and catalog commands still work and queries report the service
// as unavailable.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("embedding_model", app.Embedder.ModelName()).
		Str("completion_model", cfg.Claude.Model).
		Int("tools", len(app.Registry.Definitions())).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initDatabase(ctx context.Context) error {
	embedder, err := NewEmbedder(ctx, &a.Config.Embeddings, a.Logger)
	if err != nil {
		return err
	}
	a.Embedder = embedder

	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger, embedder)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// NewEmbedder builds the configured embedding backend
func NewEmbedder(ctx context.Context, cfg *common.EmbeddingsConfig, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	switch cfg.Provider {
	case "gemini":
		return embeddings.NewGeminiEmbedder(ctx, cfg.APIKey, cfg.Model, cfg.Dimension, logger)
	default:
		return embeddings.NewHashEmbedder(cfg.Dimension), nil
	}
}

// initServices wires the retrieval and generation pipeline in dependency order:
// store, tools, completion service, generator, sessions, query service.
func (a *App) initServices(ctx context.Context) error {
	a.Metrics = metrics.New()

	store, err := vectorstore.NewStore(ctx, a.StorageManager.VectorStorage(), a.Config.Retrieval.MaxResults, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open semantic store: %w", err)
	}
	a.Store = store

	registry, err := NewToolRegistry(store, a.Logger)
	if err != nil {
		return err
	}
	a.Registry = registry

	claude, err := llm.NewClaudeService(&a.Config.Claude, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Completion service unavailable, queries will fail until an API key is configured")
	} else {
		a.CompletionService = claude
	}

	a.Generator = chat.NewGenerator(a.CompletionService, &chat.GeneratorConfig{
		Model:       a.Config.Claude.Model,
		Temperature: a.Config.Claude.Temperature,
		MaxTokens:   a.Config.Claude.MaxTokens,
	}, a.Logger)

	a.Sessions = sessions.NewManager(
		a.Config.Retrieval.MaxHistory,
		a.Config.Retrieval.MaxSessions,
		common.ParseDuration(a.Config.Retrieval.SessionTTL, 30*time.Minute),
		a.Logger,
	)
	a.Processor = documents.NewProcessor(&a.Config.Retrieval, &a.Config.Docs, a.Logger)
	a.QueryService = chat.NewQueryService(store, registry, a.Generator, a.Sessions, a.Processor, a.Metrics, a.Logger)

	return nil
}

// NewToolRegistry registers the course tools against store
func NewToolRegistry(store *vectorstore.Store, logger arbor.ILogger) (*tools.Registry, error) {
	registry := tools.NewRegistry(logger)
	for _, tool := range []interfaces.Tool{
		tools.NewSearchTool(store, logger),
		tools.NewOutlineTool(store, logger),
	} {
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("failed to register tool: %w", err)
		}
	}
	return registry, nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.QueryHandler = handlers.NewQueryHandler(a.QueryService, a.Sessions, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.QueryHandler, a.Logger)
}

// LoadDocs ingests the configured docs directory when enabled
func (a *App) LoadDocs(ctx context.Context) {
	if !a.Config.Docs.LoadOnStartup {
		return
	}

	courses, chunks, err := a.QueryService.AddCourseFolder(ctx, a.Config.Docs.Dir, false)
	if err != nil {
		a.Logger.Error().Err(err).Str("dir", a.Config.Docs.Dir).Msg("Failed to load course documents")
		return
	}
	a.Logger.Info().
		Int("courses", courses).
		Int("chunks", chunks).
		Msg("Loaded course documents")
}

// Close releases the completion service and storage
func (a *App) Close() error {
	if a.CompletionService != nil {
		if err := a.CompletionService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close completion service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
