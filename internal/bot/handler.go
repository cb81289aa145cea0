package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-bot/internal/interpreter"
	"github.com/dvloznov/finance-bot/internal/jobs"
	"github.com/dvloznov/finance-bot/internal/ledger"
	"github.com/dvloznov/finance-bot/internal/logger"
)

// Greeting is the reply to /start.
const Greeting = "Hi! I'm a personal finance bot.\n" +
	"Tell me about an expense or income, for example: '15 euro coffee' or just '500'."

// InternalErrorReply is sent when handling a message panicked.
const InternalErrorReply = "Something went wrong while processing your message. Please try again later."

// Messenger sends replies back to a chat.
type Messenger interface {
	SendTyping(ctx context.Context, chatID int64) error
	SendText(ctx context.Context, chatID int64, text string) error
}

// TextInterpreter turns user text into a Result.
type TextInterpreter interface {
	Interpret(ctx context.Context, text string) interpreter.Result
}

// ResultWriter persists a Result and decides the reply.
type ResultWriter interface {
	Apply(ctx context.Context, res interpreter.Result) ledger.Outcome
}

// Handler runs the message pipeline for one chat message.
type Handler struct {
	messenger   Messenger
	interpreter TextInterpreter
	writer      ResultWriter
}

// NewHandler creates a Handler.
func NewHandler(m Messenger, in TextInterpreter, w ResultWriter) *Handler {
	return &Handler{messenger: m, interpreter: in, writer: w}
}

// Handle processes a dispatched message job.
func (h *Handler) Handle(ctx context.Context, job jobs.MessageJob) error {
	return h.HandleMessage(ctx, job.ChatID, job.Text)
}

// HandleMessage sends exactly one reply for text. The returned error only
// reports a failure to deliver that reply.
func (h *Handler) HandleMessage(ctx context.Context, chatID int64, text string) error {
	log := logger.FromContext(ctx)
	log.Debug().Str("state", "RECEIVED").Msg("Message received")

	if isStartCommand(text) {
		return h.reply(ctx, chatID, Greeting)
	}

	if err := h.messenger.SendTyping(ctx, chatID); err != nil {
		log.Warn().Err(err).Msg("Failed to send typing indicator")
	}

	log.Debug().Str("state", "INTERPRETING").Msg("Interpreting message")
	res := h.interpreter.Interpret(ctx, text)

	out := h.writer.Apply(ctx, res)
	log.Debug().Str("state", string(out.State)).Msg("Message processed")

	return h.reply(ctx, chatID, out.Reply)
}

// Recover is a panic callback for the dispatcher. It tells the chat that
// processing failed.
func (h *Handler) Recover(ctx context.Context, job jobs.MessageJob, recovered any) {
	if err := h.messenger.SendText(ctx, job.ChatID, InternalErrorReply); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to send error reply")
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) error {
	if err := h.messenger.SendText(ctx, chatID, text); err != nil {
		return fmt.Errorf("Handler.reply: send text: %w", err)
	}
	return nil
}

// isStartCommand reports whether text is /start, optionally addressed to a
// bot as /start@MyBot. Every other text goes through interpretation.
func isStartCommand(text string) bool {
	cmd := strings.TrimSpace(text)
	if at := strings.IndexByte(cmd, '@'); at != -1 {
		if strings.ContainsAny(cmd[at:], " \t\n") {
			return false
		}
		cmd = cmd[:at]
	}
	return cmd == "/start"
}
