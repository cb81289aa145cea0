package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-bot/internal/bot"
	"github.com/dvloznov/finance-bot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{StorageBackend: "sqlite"})
	assert.Error(t, err)
}

func TestConnectStore_StopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		StorageBackend:  config.BackendPostgres,
		DBRetryInterval: 10 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := ConnectStore(ctx, cfg)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoggerOptions(t *testing.T) {
	opts := LoggerOptions(&config.Config{LogLevel: "debug", LogFormat: "json"})
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, "json", opts.Format)
}

func TestConnectTelegram_RetriesAuthorization(t *testing.T) {
	cfg := &config.Config{TelegramToken: "token", DBRetryInterval: time.Millisecond}

	attempts := 0
	want := bot.NewTelegramTransportWithAPI(nil)
	transport, username, err := connectTelegram(context.Background(), cfg, func(token string) (*bot.TelegramTransport, string, error) {
		attempts++
		assert.Equal(t, "token", token)
		if attempts < 3 {
			return nil, "", errors.New("Bad Gateway")
		}
		return want, "FinanceBot", nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Same(t, want, transport)
	assert.Equal(t, "FinanceBot", username)
}

func TestConnectTelegram_StopsOnCancel(t *testing.T) {
	cfg := &config.Config{TelegramToken: "token", DBRetryInterval: 10 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := connectTelegram(ctx, cfg, func(token string) (*bot.TelegramTransport, string, error) {
		return nil, "", errors.New("Unauthorized")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
