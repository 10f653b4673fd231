// Command mailrag classifies email with an LLM and answers questions
// grounded in the stored messages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/mailrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/mailrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/mailrag/internal/adapters/driven/storage/sqlite"
	memoryindex "github.com/custodia-labs/mailrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
	"github.com/custodia-labs/mailrag/internal/core/services"
	"github.com/custodia-labs/mailrag/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// bootstrap wires the driven adapters into the core services.
func bootstrap(ctx context.Context) (*cli.Services, func(), error) {
	configDir := os.Getenv("MAILRAG_HOME")
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	logger.Debug("config directory %s", configDir)

	dbPath := settings.Storage.Path
	if dbPath == "" {
		dbPath = filepath.Join(configDir, sqlite.DefaultFileName)
	}
	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("opening prompts: %w", err)
	}

	aiServices := ai.Initialise(ctx, *settings)

	classifier := services.NewClassificationService(aiServices.CompletionService, prompts)
	indexer := services.NewIndexService(aiServices.EmbeddingService, aiServices.VectorIndex)
	emailService := services.NewEmailService(store.Emails(), store.Categories(), classifier, indexer)
	answers := services.NewAnswerService(
		aiServices.EmbeddingService,
		aiServices.VectorIndex,
		aiServices.CompletionService,
		prompts,
	)

	var chatService driving.ChatService = services.NewChatService(answers, store.Emails())
	if needsWarmup(aiServices) {
		chatService = &warmingChat{
			ChatService: chatService,
			warm: func(ctx context.Context) {
				n, err := emailService.RebuildIndex(ctx)
				if err != nil {
					logger.Warn("rebuilding in-memory index: %v", err)
				}
				logger.Debug("indexed %d stored emails into the in-memory index", n)
			},
		}
	}

	release := func() {
		aiServices.Close()
		if err := store.Close(); err != nil {
			logger.Error(err, "closing store")
		}
	}

	return &cli.Services{
		Emails:     emailService,
		Categories: services.NewCategoryService(store.Categories()),
		Chat:       chatService,
		Settings:   settingsService,
	}, release, nil
}

// needsWarmup reports whether retrieval runs against an in-process index,
// which starts empty. A Chroma backend that failed to connect falls back to
// one too.
func needsWarmup(result *ai.InitResult) bool {
	if result.EmbeddingService == nil {
		return false
	}
	_, inMemory := result.VectorIndex.(*memoryindex.Index)
	return inMemory
}

// warmingChat fills the in-memory index from the store before the first
// question. Commands that never ask skip the embedding cost.
type warmingChat struct {
	driving.ChatService
	once sync.Once
	warm func(ctx context.Context)
}

func (c *warmingChat) Ask(ctx context.Context, q string, history []domain.ChatMessage) (*driving.ChatResponse, error) {
	c.once.Do(func() { c.warm(ctx) })
	return c.ChatService.Ask(ctx, q, history)
}
