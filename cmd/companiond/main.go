package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/carebridge/companiond/assistant"
	"github.com/carebridge/companiond/config"
	"github.com/carebridge/companiond/conversations"
	"github.com/carebridge/companiond/llm"
	"github.com/carebridge/companiond/llm/anthropic"
	"github.com/carebridge/companiond/llm/ollama"
	"github.com/carebridge/companiond/llm/openai"
	applogger "github.com/carebridge/companiond/logger"
	"github.com/carebridge/companiond/memory"
	"github.com/carebridge/companiond/migrations"
	"github.com/carebridge/companiond/profile"
	"github.com/carebridge/companiond/reminders"
	"github.com/carebridge/companiond/runtime"
	"github.com/carebridge/companiond/server"
	"github.com/carebridge/companiond/summaries"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "companiond.yaml", "Path to YAML config file")
		logFile    = flag.String("logfile", "", "Path to log file. If not set, logs to stdout/stderr")
		pretty     = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	logger, err := applogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info().Str("config", *configPath).Str("provider", cfg.LLM.Provider).Msg("companiond starting")

	db, err := sql.Open("sqlite3", cfg.Database+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Best-effort close on shutdown

	if err := migrations.RunMigrations(db, cfg.Migrations, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	client, err := newLLMClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	gateway := llm.NewGateway(
		client,
		cfg.LLM.Model,
		cfg.LLM.MaxTokens,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second,
		logger,
	)

	memoryClient := memory.NewClient(
		cfg.Memory.BaseURL,
		time.Duration(cfg.Memory.TimeoutSeconds)*time.Second,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := runtime.NewPool(cfg.Workers.Count, cfg.Workers.QueueSize, logger)
	pool.Start(ctx)

	service := assistant.NewService(
		conversations.NewStore(db),
		reminders.NewStore(db),
		summaries.NewStore(db),
		profile.NewStore(db),
		memoryClient,
		gateway,
		pool,
		logger,
	)

	srv := server.New(cfg.Server.HTTPAddr, service, reminders.NewStore(db), summaries.NewStore(db), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP shutdown did not finish cleanly")
	}
	pool.Shutdown()
	return nil
}

// newLLMClient builds the configured generation provider.
func newLLMClient(cfg *config.Config, logger zerolog.Logger) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.LLM.Model, cfg.OpenAI.Organization)
	case "anthropic":
		return anthropic.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.LLM.Model, logger)
	case "ollama":
		return ollama.NewOllamaClient(cfg.Ollama.Host, cfg.LLM.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
