package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dvloznov/finance-bot/internal/jobs"
	"github.com/dvloznov/finance-bot/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxMessageLength is the longest text Telegram accepts in one message.
const MaxMessageLength = 4096

const pollTimeoutSeconds = 60

// BotAPI is the part of tgbotapi.BotAPI used by TelegramTransport.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramTransport receives messages by long polling and sends replies.
type TelegramTransport struct {
	api BotAPI
}

// NewTelegramTransport authorizes token against the Bot API.
func NewTelegramTransport(token string) (*TelegramTransport, string, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, "", fmt.Errorf("NewTelegramTransport: authorize bot: %w", err)
	}
	return &TelegramTransport{api: api}, api.Self.UserName, nil
}

// NewTelegramTransportWithAPI wraps an existing API client.
func NewTelegramTransportWithAPI(api BotAPI) *TelegramTransport {
	return &TelegramTransport{api: api}
}

// SendTyping shows the typing indicator in chatID.
func (t *TelegramTransport) SendTyping(ctx context.Context, chatID int64) error {
	if _, err := t.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		return fmt.Errorf("TelegramTransport.SendTyping: %w", err)
	}
	return nil
}

// SendText sends text to chatID as plain text, truncated to MaxMessageLength.
func (t *TelegramTransport) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, truncate(text, MaxMessageLength))
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("TelegramTransport.SendText: %w", err)
	}
	return nil
}

// Run polls for updates and submits every text message until ctx is done.
func (t *TelegramTransport) Run(ctx context.Context, sub jobs.Submitter) error {
	log := logger.FromContext(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := t.api.GetUpdatesChan(u)

	log.Info().Msg("Polling for Telegram updates")

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			log.Info().Msg("Stopped polling for Telegram updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			job, ok := JobFromUpdate(update)
			if !ok {
				continue
			}
			if err := sub.Submit(job); err != nil {
				log.Warn().Err(err).Int64("chat_id", job.ChatID).Msg("Message dropped")
			}
		}
	}
}

// JobFromUpdate extracts a MessageJob from a text message update.
func JobFromUpdate(update tgbotapi.Update) (jobs.MessageJob, bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return jobs.MessageJob{}, false
	}

	received := time.Now()
	if msg.Date != 0 {
		received = msg.Time()
	}

	return jobs.MessageJob{
		ChatID:     msg.Chat.ID,
		MessageID:  strconv.Itoa(msg.MessageID),
		Text:       msg.Text,
		ReceivedAt: received,
	}, true
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

var _ Messenger = (*TelegramTransport)(nil)
