package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"document-chat/internal/config"
	"document-chat/internal/db"
	"document-chat/internal/helper"
	"document-chat/internal/llmservice"
	"document-chat/internal/models"
	"document-chat/internal/parser"
	"document-chat/internal/server"
)

const configFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Extract text from a document, print it and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setupLogger(&cfg.Log)

	if *filePath != "" {
		extractFile(cfg, *filePath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbInstance, err := db.Open(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}
	defer dbInstance.Close()

	completer, err := llmservice.New(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing completion client")
	}
	if cfg.LLM.Key == "" && cfg.LLM.Provider != "ollama" {
		log.Warn().Str("env", cfg.LLM.KeyEnv).Msg("No API key configured; completion requests will be rejected")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cfg, parser.NewExtractor(cfg.Extract.MinTextLen), completer, db.NewHistoryStore(dbInstance))

	log.Info().
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Str("database", cfg.Database.Driver).
		Bool("token_stream", cfg.LLM.Stream).
		Msg("Starting document chat")
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setupLogger(cfg *config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

func extractFile(cfg *config.Config, filePath string) {
	text, err := parser.NewExtractor(cfg.Extract.MinTextLen).Extract(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing document")
	}
	log.Info().Int("bytes", len(text)).Msg("Parsed content")
	if err := helper.PrettyPrint(os.Stdout, models.UploadResponse{ExtractedText: text}); err != nil {
		os.Exit(1)
	}
}
