package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/syllabus/internal/app"
	"github.com/ternarybob/syllabus/internal/common"
	"github.com/ternarybob/syllabus/internal/services/vectorstore"
	"github.com/ternarybob/syllabus/internal/storage/badger"
)

func main() {
	var configFiles []string
	if configPath := os.Getenv("SYLLABUS_CONFIG"); configPath != "" {
		configFiles = append(configFiles, configPath)
	} else if _, err := os.Stat("syllabus.toml"); err == nil {
		configFiles = append(configFiles, "syllabus.toml")
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	ctx := context.Background()

	embedder, err := app.NewEmbedder(ctx, &config.Embeddings, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize embeddings")
	}

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger, embedder)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	store, err := vectorstore.NewStore(ctx, storageManager.VectorStorage(), config.Retrieval.MaxResults, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open semantic store")
	}

	registry, err := app.NewToolRegistry(store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to register tools")
	}

	mcpServer := server.NewMCPServer(
		"syllabus",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	if err := registerTools(mcpServer, registry, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to expose tools")
	}

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
