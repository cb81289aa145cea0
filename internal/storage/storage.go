// Package storage holds what the ledger backends share: the not-found error
// and the startup connect loop, which cmd/bot also uses for the chat transport.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finance-bot/internal/logger"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// DefaultRetryInterval is how long WaitFor sleeps between attempts.
const DefaultRetryInterval = 5 * time.Second

// WaitFor calls connect until the database is reachable, sleeping interval
// between attempts. There is no attempt limit; only ctx cancellation stops the
// loop.
func WaitFor(ctx context.Context, interval time.Duration, connect func(ctx context.Context) error) error {
	return Retry(ctx, interval, "database", connect)
}

// Retry calls fn until it succeeds or ctx is done, sleeping interval between
// attempts. dependency names what is being waited for in log entries.
func Retry(ctx context.Context, interval time.Duration, dependency string, fn func(ctx context.Context) error) error {
	log := logger.FromContext(ctx)
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			log.Info().Str("dependency", dependency).Int("attempt", attempt).Msg("Dependency reachable")
			return nil
		}

		log.Warn().
			Err(err).
			Str("dependency", dependency).
			Int("attempt", attempt).
			Dur("retry_in", interval).
			Msg("Waiting for dependency")

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("Retry: %s: giving up after %d attempts: %w", dependency, attempt, ctx.Err())
		case <-timer.C:
		}
	}
}
