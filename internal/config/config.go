// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Reference timezone must resolve without system tzdata.
)

// Summarizer backends.
const (
	SummarizerGemini = "gemini"
	SummarizerOpenAI = "openai"
)

// Config holds the application configuration.
type Config struct {
	DiscordToken string
	Trigger      string

	Summarizer    string
	GoogleAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	Location       *time.Location
	HistoryLimit   int
	RequestTimeout time.Duration

	DatabasePath     string
	HistoryRetention time.Duration

	TelegramBotToken string
	TelegramChatID   int64

	LogLevel string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}

	cfg := &Config{
		DiscordToken:     token,
		Trigger:          envOrDefault("TRIGGER", "!what"),
		Summarizer:       strings.ToLower(envOrDefault("SUMMARIZER", SummarizerGemini)),
		GoogleAPIKey:     os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:    os.Getenv("GEMINI_BASE_URL"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/what.db"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
	}

	switch cfg.Summarizer {
	case SummarizerGemini:
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required for the gemini summarizer")
		}
	case SummarizerOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai summarizer")
		}
	default:
		return nil, fmt.Errorf("invalid SUMMARIZER %q, use: gemini, openai", cfg.Summarizer)
	}

	tz := envOrDefault("TIMEZONE", "America/Los_Angeles")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	limit, err := strconv.Atoi(envOrDefault("HISTORY_LIMIT", "10000"))
	if err != nil || limit < 1 {
		return nil, fmt.Errorf("HISTORY_LIMIT must be a positive integer")
	}
	cfg.HistoryLimit = limit

	if cfg.RequestTimeout, err = parseDuration("REQUEST_TIMEOUT", "2m"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if cfg.HistoryRetention, err = parseDuration("HISTORY_RETENTION", "720h"); err != nil {
		return nil, err
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = id
	}
	if (cfg.TelegramBotToken == "") != (cfg.TelegramChatID == 0) {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}

	return cfg, nil
}

// MirrorEnabled reports whether summaries are mirrored to Telegram.
func (c *Config) MirrorEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
