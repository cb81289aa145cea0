// Package app builds the pipeline dependencies shared by the commands.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-bot/internal/archive"
	"github.com/dvloznov/finance-bot/internal/bot"
	"github.com/dvloznov/finance-bot/internal/config"
	"github.com/dvloznov/finance-bot/internal/domain"
	"github.com/dvloznov/finance-bot/internal/interpreter"
	"github.com/dvloznov/finance-bot/internal/logger"
	"github.com/dvloznov/finance-bot/internal/storage"
	bqstore "github.com/dvloznov/finance-bot/internal/storage/bigquery"
	"github.com/dvloznov/finance-bot/internal/storage/postgres"
)

// Store is what the commands need from a storage backend.
type Store interface {
	Save(ctx context.Context, rec *domain.TransactionRecord) error
	Get(ctx context.Context, id string) (*domain.TransactionRecord, error)
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*postgres.Store)(nil)
	_ Store = (*bqstore.Store)(nil)
)

// OpenStore makes one attempt at opening the configured backend.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendBigQuery:
		s, err := bqstore.Open(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("OpenStore: unknown backend %q", cfg.StorageBackend)
	}
}

// ConnectStore opens the configured backend, retrying every
// cfg.DBRetryInterval until it is reachable, then ensures the schema.
func ConnectStore(ctx context.Context, cfg *config.Config) (Store, error) {
	log := logger.FromContext(ctx)

	var store Store
	err := storage.WaitFor(ctx, cfg.DBRetryInterval, func(ctx context.Context) error {
		s, err := OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close()
			return err
		}
		store = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ConnectStore: %w", err)
	}

	log.Info().Str("backend", cfg.StorageBackend).Msg("Storage ready")
	return store, nil
}

// telegramFactory authorizes a bot token and returns the transport and the
// bot's username.
type telegramFactory func(token string) (*bot.TelegramTransport, string, error)

// ConnectTelegram authorizes the bot token, retrying every cfg.DBRetryInterval
// until the Bot API accepts it or ctx is done.
func ConnectTelegram(ctx context.Context, cfg *config.Config) (*bot.TelegramTransport, string, error) {
	return connectTelegram(ctx, cfg, bot.NewTelegramTransport)
}

func connectTelegram(ctx context.Context, cfg *config.Config, newTransport telegramFactory) (*bot.TelegramTransport, string, error) {
	var (
		transport *bot.TelegramTransport
		username  string
	)
	err := storage.Retry(ctx, cfg.DBRetryInterval, "telegram", func(ctx context.Context) error {
		t, name, err := newTransport(cfg.TelegramToken)
		if err != nil {
			return err
		}
		transport, username = t, name
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("ConnectTelegram: %w", err)
	}
	return transport, username, nil
}

// Interpreter bundles the interpreter with the resources it holds.
type Interpreter struct {
	*interpreter.Interpreter
	archive *archive.GCSArchive
}

// Close releases the model output archive, if any.
func (i *Interpreter) Close() error {
	if i.archive != nil {
		return i.archive.Close()
	}
	return nil
}

// NewInterpreter builds the Gemini backed interpreter. The GCS archive is
// attached when cfg.ModelOutputBucket is set.
func NewInterpreter(ctx context.Context, cfg *config.Config) (*Interpreter, error) {
	log := logger.FromContext(ctx)

	gen, err := interpreter.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("NewInterpreter: %w", err)
	}

	opts := []interpreter.Option{interpreter.WithModelName(gen.Model())}

	var arch *archive.GCSArchive
	if cfg.ModelOutputBucket != "" {
		arch, err = archive.NewGCSArchive(ctx, cfg.ModelOutputBucket)
		if err != nil {
			return nil, fmt.Errorf("NewInterpreter: %w", err)
		}
		opts = append(opts, interpreter.WithArchive(arch))
		log.Info().Str("bucket", cfg.ModelOutputBucket).Msg("Archiving model outputs")
	}

	in := interpreter.New(gen, interpreter.NewPromptLoader(cfg.PromptPath), opts...)
	return &Interpreter{Interpreter: in, archive: arch}, nil
}

// LoggerOptions maps the logging settings of cfg.
func LoggerOptions(cfg *config.Config) logger.Options {
	return logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}
}
