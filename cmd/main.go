package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"markov-go/internal/config"
	"markov-go/internal/controller"
	"markov-go/internal/handler"
	"markov-go/internal/service"
	"markov-go/pkg/mcp"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	flagSet := pflag.NewFlagSet("markov-go", pflag.ExitOnError)
	var appConfigPath = flagSet.String("config", "", "Path to app configuration file")
	var port = flagSet.Int("port", 0, "Server port (overrides app.port)")
	var logLevel = flagSet.String("log-level", "", "Log level: debug, info, warn, error")
	var seed = flagSet.Int64("seed", 0, "Random seed for reproducible output (0 = random)")
	var order = flagSet.Int("order", 0, "Context order (overrides generation.order)")
	var maxTokens = flagSet.Int("max-tokens", 0, "Maximum tokens per completion (overrides generation.max_tokens)")
	var prompt = flagSet.StringP("prompt", "p", "", "Generate one completion for this user message and exit")
	_ = flagSet.Parse(os.Args[1:])

	cfg, err := config.LoadConfig(*appConfigPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if *port != 0 {
		cfg.App.Port = *port
	}
	if *logLevel != "" {
		cfg.App.LogLevel = *logLevel
	}
	if *seed != 0 {
		cfg.Generation.Seed = *seed
	}
	if *order != 0 {
		cfg.Generation.Order = *order
	}
	if *maxTokens != 0 {
		cfg.Generation.MaxTokens = *maxTokens
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	logger, err := newLogger(cfg, *prompt != "")
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	defer logger.Sync()

	logger.Info("Configuration loaded successfully", zap.Any("config", cfg))

	completionService, err := service.NewCompletionService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize completion service", zap.Error(err))
	}

	if *prompt != "" {
		if err := RunPrompt(context.Background(), completionService, *prompt, os.Stdout); err != nil {
			logger.Fatal("Prompt failed", zap.Error(err))
		}
		return
	}

	var mcpServer *mcp.CompletionServer
	if cfg.Mcp.Enabled {
		mcpServer = mcp.NewCompletionServer(completionService, cfg, logger)
	} else {
		logger.Info("MCP server disabled in the configuration")
	}

	generateController := controller.NewGenerateController(completionService, logger)
	router := handler.SetupRouter(generateController, mcpServer, logger)

	logger.Info("Starting server", zap.Int("port", cfg.App.Port))
	if err := http.ListenAndServe(cfg.GetAddress(), router); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// newLogger builds a production zap logger. In prompt mode logs go to stderr so
// stdout carries only the completion.
func newLogger(cfg *config.Config, promptMode bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.App.LogLevel, err)
	}

	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(level)
	cfgZap.OutputPaths = []string{"stdout"}
	if promptMode {
		cfgZap.OutputPaths = []string{"stderr"}
	}
	if cfg.App.LogFile != "" {
		cfgZap.OutputPaths = append(cfgZap.OutputPaths, cfg.App.LogFile)
	}
	return cfgZap.Build()
}
