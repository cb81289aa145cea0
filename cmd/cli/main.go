package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-bot/internal/app"
	"github.com/dvloznov/finance-bot/internal/bot"
	"github.com/dvloznov/finance-bot/internal/config"
	"github.com/dvloznov/finance-bot/internal/interpreter"
	"github.com/dvloznov/finance-bot/internal/ledger"
	"github.com/dvloznov/finance-bot/internal/logger"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: os.Stderr})

	switch os.Args[1] {
	case "chat":
		runChat(cfg, log)
	case "interpret":
		runInterpret(cfg, log)
	case "migrate":
		runMigrate(cfg, log)
	case "inspect":
		runInspect(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Bot CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat       Talk to the bot on the console and save transactions")
	fmt.Println("  interpret  Print how a message is interpreted, without saving")
	fmt.Println("  migrate    Create the transactions table if it does not exist")
	fmt.Println("  inspect    Print a stored transaction by ID")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func signalContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return logger.WithContext(ctx, log), cancel
}

func runChat(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	if err := cfg.Validate(config.NeedGemini | config.NeedStorage); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	store, err := app.ConnectStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to storage")
	}
	defer store.Close()

	in, err := app.NewInterpreter(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create interpreter")
	}
	defer in.Close()

	console := bot.NewConsoleTransport(os.Stdin, os.Stdout)
	handler := bot.NewHandler(console, in, ledger.NewWriter(store, cfg.DefaultCurrency))

	fmt.Println("Type a transaction, e.g. '15 euro coffee'. Ctrl-D to quit.")
	if err := console.Run(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Chat failed")
	}
}

func runInterpret(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("interpret", flag.ExitOnError)
	text := fs.String("text", "", "Message text to interpret")
	fs.Parse(os.Args[2:])

	if *text == "" {
		log.Fatal().Msg("Error: --text is required")
	}
	if err := cfg.Validate(config.NeedGemini); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := signalContext(log)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 2*time.Minute)
	defer cancelTimeout()

	in, err := app.NewInterpreter(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create interpreter")
	}
	defer in.Close()

	res := in.Interpret(ctx, *text)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resultView(res)); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
}

type draftView struct {
	Amount      *string  `json:"amount,omitempty"`
	Currency    *string  `json:"currency,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Date        *string  `json:"date,omitempty"`
	BotResponse string   `json:"bot_response,omitempty"`
	Problems    []string `json:"problems,omitempty"`
}

type resultJSON struct {
	Kind        string     `json:"kind"`
	Question    string     `json:"question,omitempty"`
	Transaction *draftView `json:"transaction,omitempty"`
	Error       string     `json:"error,omitempty"`
	Raw         string     `json:"raw,omitempty"`
}

func resultView(res interpreter.Result) resultJSON {
	out := resultJSON{Kind: res.Kind.String(), Raw: res.Raw}
	if res.Cause != nil {
		out.Error = res.Cause.Error()
	}
	if res.Clarification != nil {
		out.Question = res.Clarification.Question
	}
	if d := res.Transaction; d != nil {
		v := &draftView{
			Currency:    d.Currency,
			Category:    d.Category,
			Description: d.Description,
			Type:        d.Type,
			Date:        d.Date,
			BotResponse: d.BotResponse,
			Problems:    d.Problems,
		}
		if d.Amount != nil {
			amount := d.Amount.String()
			v.Amount = &amount
		}
		out.Transaction = v
	}
	return out
}

func runMigrate(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	if err := cfg.Validate(config.NeedStorage); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	log.Info().Str("backend", cfg.StorageBackend).Msg("Ensuring schema")

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	fmt.Println("Schema is up to date.")
}

func runInspect(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	id := fs.String("id", "", "Transaction ID")
	fs.Parse(os.Args[2:])

	if *id == "" {
		log.Fatal().Msg("Error: --id is required")
	}
	if err := cfg.Validate(config.NeedStorage); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	rec, err := store.Get(ctx, *id)
	if err != nil {
		log.Fatal().Err(err).Str("id", *id).Msg("Failed to load transaction")
	}

	fmt.Printf("ID:          %s\n", rec.ID)
	fmt.Printf("Date:        %s\n", rec.Date)
	fmt.Printf("Type:        %s\n", rec.Type)
	fmt.Printf("Category:    %s\n", rec.Category)
	fmt.Printf("Amount:      %s %s\n", rec.Amount.String(), rec.Currency)
	fmt.Printf("Description: %s\n", rec.DescriptionOrEmpty())
	fmt.Printf("Created:     %s\n", rec.CreatedAt.Format(time.RFC3339))
}
