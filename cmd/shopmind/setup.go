package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/shopmind/internal/config"
	"github.com/sandevgo/shopmind/internal/core"
	"github.com/sandevgo/shopmind/internal/providers/extraction"
	"github.com/sandevgo/shopmind/internal/providers/llm"
	"github.com/sandevgo/shopmind/internal/service/agent"
	"github.com/sandevgo/shopmind/internal/service/memory"
	"github.com/sandevgo/shopmind/internal/storage/sqlite"
	"github.com/sandevgo/shopmind/internal/transport/cli"
	"github.com/sandevgo/shopmind/pkg/log"
	"github.com/sandevgo/shopmind/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	if err := initEnv(config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	extractionCfg := config.NewExtractionConfig(ctx)
	openRouterCfg := config.NewOpenRouterConfig(ctx)

	// 2. Storage
	db, messagesRepo, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	// 3. Chat provider
	aiProvider := llm.NewOpenRouter(openRouterCfg.APIKey, openRouterCfg.Model)

	// 4. Context-compression engine over the extraction service
	extractor := extraction.NewClient(extractionCfg)
	mem := memory.NewService(extractor, extractionCfg.MaxInputTokens)

	// 5. Agent. Tool wrappers are external; none are wired in this binary.
	ag := agent.NewAgent(appCfg, aiProvider, mem, messagesRepo, nil)

	// 6. Transport
	chat, err := cli.NewReadLine(ag, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize chat transport")
	}
	services = append(services, chat)

	return services
}

func initEnv(runtimePath string) error {
	envPath := filepath.Join(runtimePath, ".env")
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(envPath)
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, core.MessagesRepository, error) {
	db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
	if err != nil {
		return nil, nil, err
	}
	return db, sqlite.NewMessagesRepo(db), nil
}
