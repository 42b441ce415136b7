package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_ENABLED", "DB_HOST", "DB_PORT", "DB_USERNAME", "DB_PASSWORD",
		"DB_DATABASE", "DB_SSLMODE", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
		"TELEGRAM_CHAT_THREAD_ID", "HTTP_PORT", "SCRAPE_CRON", "DATA_DIR",
		"GIT_ENABLED", "GIT_AUTHOR_NAME", "GIT_AUTHOR_EMAIL", "GIT_PUSH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "bsiwatch", cfg.DBName)
	assert.Equal(t, "3000", cfg.HTTPPort)
	assert.Equal(t, DefaultCronSpec, cfg.CronSpec)
	assert.Equal(t, ".", cfg.DataDir)
	assert.True(t, cfg.GitEnabled)
	assert.False(t, cfg.GitPush)
	assert.Equal(t, "bsiwatch-bot", cfg.GitAuthorName)
	assert.False(t, cfg.TelegramEnabled())
	assert.Nil(t, cfg.TelegramThreadID)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("SCRAPE_CRON", "*/5 * * * *")
	t.Setenv("DATA_DIR", "data")
	t.Setenv("GIT_PUSH", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "chat")
	t.Setenv("TELEGRAM_CHAT_THREAD_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "*/5 * * * *", cfg.CronSpec)
	assert.Equal(t, "data", cfg.DataDir)
	assert.True(t, cfg.GitPush)
	assert.True(t, cfg.TelegramEnabled())
	require.NotNil(t, cfg.TelegramThreadID)
	assert.Equal(t, 42, *cfg.TelegramThreadID)
}

func TestLoadInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("GIT_PUSH", "definitely")

	_, err := Load()
	require.Error(t, err)

	clearEnv(t)
	t.Setenv("TELEGRAM_CHAT_THREAD_ID", "not-a-number")

	_, err = Load()
	require.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{
		DBUser:     "user",
		DBPassword: "secret",
		DBHost:     "db",
		DBPort:     "5433",
		DBName:     "groups",
		DBSSLMode:  "require",
	}
	assert.Equal(t, "postgres://user:secret@db:5433/groups?sslmode=require", cfg.PostgresDSN())
}

func TestTelegramEnabledRequiresBoth(t *testing.T) {
	assert.False(t, Config{TelegramToken: "token"}.TelegramEnabled())
	assert.False(t, Config{TelegramChat: "chat"}.TelegramEnabled())
	assert.True(t, Config{TelegramToken: "token", TelegramChat: "chat"}.TelegramEnabled())
}
