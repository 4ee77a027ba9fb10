package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// NotifyChannel is the channel the outbox insert trigger notifies on.
const NotifyChannel = "criclink_outbox_events"

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to poll for missed events
	Retry            RetryPolicy
	PingInterval     time.Duration
	BatchSize        int
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel:    NotifyChannel,
		FallbackInterval: 30 * time.Second,
		Retry:            RetryPolicy{MaxRetries: 5, RetryDelay: 200 * time.Millisecond},
		PingInterval:     90 * time.Second,
		BatchSize:        100,
	}
}

// Listener relays outbox rows as soon as the insert trigger notifies, with a periodic sweep
// for anything missed while disconnected.
type Listener struct {
	app       *App
	repo      Source
	listener  *pq.Listener
	publisher EventPublisher
	cfg       ListenerConfig
	clock     clockwork.Clock
}

func NewListener(app *App, repo Source, publisher EventPublisher, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return &Listener{
		app:       app,
		repo:      repo,
		listener:  l,
		publisher: publisher,
		cfg:       cfg,
		clock:     clockwork.NewRealClock(),
	}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("listener started")

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	fallbackTicker := time.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	// Drain the backlog left from before start.
	l.processUnsent(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// Connection was re-established; notifications may have been lost.
				l.processUnsent(ctx)
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-fallbackTicker.C:
			l.processUnsent(ctx)
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.listener.Close()
}

// handleNotification publishes the event whose id arrived as the notification payload.
func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	event, err := l.repo.FetchByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch outbox event: %w", err)
	}

	if err := publishWithRetry(ctx, l.clock, l.publisher, l.cfg.Retry, *event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := l.repo.MarkSent(ctx, id); err != nil {
		return fmt.Errorf("failed to mark outbox event %s as sent: %w", id, err)
	}

	log.Debug().Str("event_id", id.String()).Msg("published and marked event as sent")
	return nil
}

func (l *Listener) processUnsent(ctx context.Context) {
	_, err := l.app.ProcessUnsentEvents(ctx, l.cfg.BatchSize, func(ctx context.Context, event Event) error {
		return publishWithRetry(ctx, l.clock, l.publisher, l.cfg.Retry, event)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to process unsent events")
	}
	if _, err := l.app.Pending(ctx); err != nil {
		log.Error().Err(err).Msg("failed to count pending events")
	}
}
