package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"what_bot/internal/bot"
	"what_bot/internal/config"
	"what_bot/internal/mirror"
	"what_bot/internal/retention"
	"what_bot/internal/storage"
	"what_bot/internal/summarizer"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Error("create summarizer", "backend", cfg.Summarizer, "error", err)
		os.Exit(1)
	}
	sum := summarizer.New(gen, log)

	var pub bot.Publisher
	if cfg.MirrorEnabled() {
		tg, err := mirror.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Error("create telegram mirror", "error", err)
			os.Exit(1)
		}
		pub = tg
	}

	b, err := bot.New(cfg, sum, store, pub, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	log.Info("starting bot", "trigger", cfg.Trigger, "summarizer", cfg.Summarizer, "mirror", cfg.MirrorEnabled())

	go retention.New(store, cfg.HistoryRetention, log).Run(ctx)

	if err := b.Run(ctx); err != nil {
		log.Error("run bot", "error", err)
		os.Exit(1)
	}

	log.Info("bot stopped")
}

func newGenerator(ctx context.Context, cfg *config.Config) (summarizer.Generator, error) {
	if cfg.Summarizer == config.SummarizerOpenAI {
		return summarizer.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	}
	return summarizer.NewGemini(ctx, cfg.GoogleAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
