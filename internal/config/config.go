package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBEnabled  bool
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	TelegramToken    string
	TelegramChat     string
	TelegramThreadID *int

	HTTPPort string
	CronSpec string

	DataDir string

	GitEnabled     bool
	GitAuthorName  string
	GitAuthorEmail string
	GitPush        bool
}

// DefaultCronSpec matches the original publication cadence: minute 3 of
// every hour on days 2, 15 and 28 of each month.
const DefaultCronSpec = "3 * 2,15,28 * *"

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DBHost:         envOrDefault("DB_HOST", "localhost"),
		DBPort:         envOrDefault("DB_PORT", "5432"),
		DBUser:         envOrDefault("DB_USERNAME", "postgres"),
		DBPassword:     envOrDefault("DB_PASSWORD", "postgres"),
		DBName:         envOrDefault("DB_DATABASE", "bsiwatch"),
		DBSSLMode:      envOrDefault("DB_SSLMODE", "disable"),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChat:   os.Getenv("TELEGRAM_CHAT_ID"),
		HTTPPort:       envOrDefault("HTTP_PORT", "3000"),
		CronSpec:       envOrDefault("SCRAPE_CRON", DefaultCronSpec),
		DataDir:        envOrDefault("DATA_DIR", "."),
		GitAuthorName:  envOrDefault("GIT_AUTHOR_NAME", "bsiwatch-bot"),
		GitAuthorEmail: envOrDefault("GIT_AUTHOR_EMAIL", "bsiwatch-bot@users.noreply.github.com"),
	}

	var err error
	if cfg.DBEnabled, err = envOrBool("DB_ENABLED", true); err != nil {
		return cfg, err
	}
	if cfg.GitEnabled, err = envOrBool("GIT_ENABLED", true); err != nil {
		return cfg, err
	}
	if cfg.GitPush, err = envOrBool("GIT_PUSH", false); err != nil {
		return cfg, err
	}

	threadID, err := envOrIntPtr("TELEGRAM_CHAT_THREAD_ID")
	if err != nil {
		return cfg, err
	}
	cfg.TelegramThreadID = threadID

	if cfg.DBEnabled && (cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "") {
		return cfg, errors.New("missing database configuration")
	}

	return cfg, nil
}

// TelegramEnabled reports whether alerting is configured. Both the bot token
// and the chat are required; alerts are silently disabled otherwise.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChat != ""
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envOrBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func envOrIntPtr(key string) (*int, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &parsed, nil
}
