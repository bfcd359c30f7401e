package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// withRetry calls ping until it succeeds, doubling the wait between attempts.
// Compose stacks routinely start the API before Postgres and Redis accept
// connections.
func withRetry(ctx context.Context, log zerolog.Logger, target string, attempts int, backoff time.Duration, ping func(context.Context) error) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}

		log.Warn().Err(err).
			Str("target", target).
			Int("attempt", i).
			Dur("retry_in", backoff).
			Msg("Connection not ready")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
