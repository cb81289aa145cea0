package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("DB_RETRY_INTERVAL", "")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/finance")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, 5*time.Second, cfg.DBRetryInterval)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, "config/system_prompt.txt", cfg.PromptPath)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.Equal(t, "postgres://u:p@db:5432/finance", cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "BigQuery")
	t.Setenv("BIGQUERY_PROJECT", "proj")
	t.Setenv("DB_RETRY_INTERVAL", "250ms")
	t.Setenv("DEFAULT_CURRENCY", " usd ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendBigQuery, cfg.StorageBackend)
	assert.Equal(t, "proj", cfg.BigQueryProject)
	assert.Equal(t, 250*time.Millisecond, cfg.DBRetryInterval)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("retry interval", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "")
		t.Setenv("DB_RETRY_INTERVAL", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("backend", func(t *testing.T) {
		t.Setenv("DB_RETRY_INTERVAL", "")
		t.Setenv("STORAGE_BACKEND", "sqlite")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := &Config{StorageBackend: BackendPostgres}

	err := cfg.Validate(NeedTelegram | NeedGemini | NeedStorage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	assert.Contains(t, err.Error(), "DATABASE_URL")

	assert.NoError(t, cfg.Validate(0))

	bq := &Config{StorageBackend: BackendBigQuery, BigQueryDataset: "finance"}
	err = bq.Validate(NeedStorage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BIGQUERY_PROJECT")
}

func TestSafeDatabaseHost(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://user:secret@db:5432/finance"}
	assert.Equal(t, "db:5432/finance", cfg.SafeDatabaseHost())

	cfg.DatabaseURL = "postgres:///finance"
	assert.Equal(t, "postgres:///finance", cfg.SafeDatabaseHost())
}
