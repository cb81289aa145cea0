package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendBigQuery = "bigquery"
)

// Config holds application configuration.
type Config struct {
	TelegramToken string
	GeminiAPIKey  string
	GeminiModel   string
	PromptPath    string

	StorageBackend  string
	DatabaseURL     string
	BigQueryProject string
	BigQueryDataset string
	DBRetryInterval time.Duration

	// ModelOutputBucket enables archiving raw model responses to GCS when set.
	ModelOutputBucket string

	HealthAddr      string
	LogLevel        string
	LogFormat       string
	DefaultCurrency string
}

// Load reads configuration from the environment, with an optional .env file
// underneath it.
func Load() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("PROMPT_PATH", "config/system_prompt.txt")
	v.SetDefault("STORAGE_BACKEND", BackendPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("BIGQUERY_PROJECT", "")
	v.SetDefault("BIGQUERY_DATASET", "finance")
	v.SetDefault("DB_RETRY_INTERVAL", "5s")
	v.SetDefault("MODEL_OUTPUT_BUCKET", "")
	v.SetDefault("HEALTH_ADDR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DEFAULT_CURRENCY", "EUR")
}

func fromViper(v *viper.Viper) (*Config, error) {
	retryStr := v.GetString("DB_RETRY_INTERVAL")
	retry, err := time.ParseDuration(retryStr)
	if err != nil {
		return nil, fmt.Errorf("config: invalid DB_RETRY_INTERVAL %q: %w", retryStr, err)
	}
	if retry <= 0 {
		return nil, fmt.Errorf("config: DB_RETRY_INTERVAL must be positive, got %s", retry)
	}

	cfg := &Config{
		TelegramToken:     v.GetString("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:      v.GetString("GEMINI_API_KEY"),
		GeminiModel:       v.GetString("GEMINI_MODEL"),
		PromptPath:        v.GetString("PROMPT_PATH"),
		StorageBackend:    strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_BACKEND"))),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		BigQueryProject:   v.GetString("BIGQUERY_PROJECT"),
		BigQueryDataset:   v.GetString("BIGQUERY_DATASET"),
		DBRetryInterval:   retry,
		ModelOutputBucket: v.GetString("MODEL_OUTPUT_BUCKET"),
		HealthAddr:        v.GetString("HEALTH_ADDR"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		DefaultCurrency:   strings.ToUpper(strings.TrimSpace(v.GetString("DEFAULT_CURRENCY"))),
	}

	switch cfg.StorageBackend {
	case BackendPostgres, BackendBigQuery:
	default:
		return nil, fmt.Errorf("config: unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

// Requirement selects which parts of the config a command needs.
type Requirement int

const (
	NeedTelegram Requirement = 1 << iota
	NeedGemini
	NeedStorage
)

// Validate reports every missing key needed by req.
func (c *Config) Validate(req Requirement) error {
	var missing []string

	if req&NeedTelegram != 0 && c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if req&NeedGemini != 0 && c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if req&NeedStorage != 0 {
		switch c.StorageBackend {
		case BackendPostgres:
			if c.DatabaseURL == "" {
				missing = append(missing, "DATABASE_URL")
			}
		case BackendBigQuery:
			if c.BigQueryProject == "" {
				missing = append(missing, "BIGQUERY_PROJECT")
			}
			if c.BigQueryDataset == "" {
				missing = append(missing, "BIGQUERY_DATASET")
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SafeDatabaseHost returns the part of DatabaseURL after the last "@" so it
// can be logged without credentials.
func (c *Config) SafeDatabaseHost() string {
	if idx := strings.LastIndex(c.DatabaseURL, "@"); idx != -1 {
		return c.DatabaseURL[idx+1:]
	}
	return c.DatabaseURL
}
