package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// RetryPolicy bounds publish attempts. The delay grows linearly with the attempt number.
type RetryPolicy struct {
	MaxRetries int
	RetryDelay time.Duration
}

func publishWithRetry(ctx context.Context, clock clockwork.Clock, publisher EventPublisher, policy RetryPolicy, event Event) error {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			publishRetries.Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-clock.After(policy.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", policy.MaxRetries+1, lastErr)
}
