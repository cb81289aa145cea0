package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-bot/internal/app"
	"github.com/dvloznov/finance-bot/internal/bot"
	"github.com/dvloznov/finance-bot/internal/config"
	"github.com/dvloznov/finance-bot/internal/health"
	"github.com/dvloznov/finance-bot/internal/jobs/inmemory"
	"github.com/dvloznov/finance-bot/internal/ledger"
	"github.com/dvloznov/finance-bot/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithOptions(app.LoggerOptions(cfg))

	if err := cfg.Validate(config.NeedTelegram | config.NeedGemini | config.NeedStorage); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Info().Str("signal", sig.String()).Msg("Shutting down bot...")
		cancel()
	}()

	log.Info().
		Str("backend", cfg.StorageBackend).
		Str("database", cfg.SafeDatabaseHost()).
		Msg("Waiting for the database")

	store, err := app.ConnectStore(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			log.Info().Msg("Bot stopped before the database became reachable")
			return
		}
		log.Fatal().Err(err).Msg("Failed to connect to storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	in, err := app.NewInterpreter(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create interpreter")
	}
	defer in.Close()

	transport, username, err := app.ConnectTelegram(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			log.Info().Msg("Bot stopped before Telegram accepted the token")
			return
		}
		log.Fatal().Err(err).Msg("Failed to start Telegram client")
	}

	handler := bot.NewHandler(transport, in, ledger.NewWriter(store, cfg.DefaultCurrency))

	// Jobs keep running on their own context so SIGTERM drains instead of
	// cancelling in-flight saves.
	jobCtx := logger.WithContext(context.Background(), log)
	dispatcher := inmemory.NewDispatcher(jobCtx, handler.Handle, inmemory.WithPanicHandler(handler.Recover))

	var healthServer *health.Server
	if cfg.HealthAddr != "" {
		healthServer = health.NewServer(cfg.HealthAddr, store, log)
		healthServer.Start()
	}

	log.Info().Str("username", username).Msg("Bot is running")

	if err := transport.Run(ctx, dispatcher); err != nil {
		log.Error().Err(err).Msg("Polling stopped with error")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if healthServer != nil {
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Health server forced to shutdown")
		}
	}

	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Int("pending", dispatcher.Pending()).Msg("Error draining message jobs")
	}

	log.Info().Msg("Bot exited")
}
