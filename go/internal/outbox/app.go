package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Source is the delivery side of outbox storage: what a relay reads and marks.
type Source interface {
	FetchUnsent(ctx context.Context, limit int) ([]Event, error)
	FetchByID(ctx context.Context, id uuid.UUID) (*Event, error)
	MarkSent(ctx context.Context, ids ...uuid.UUID) error
	CountPending(ctx context.Context) (int, error)
}

// Repository defines what the app layer needs from outbox storage.
// Insert must join the caller's unit of work when one is open on ctx.
type Repository interface {
	Insert(ctx context.Context, event Event) error
	Source
}

// ErrReadOnly is returned by Record on an App built with NewRelayApp.
var ErrReadOnly = errors.New("outbox app is read-only")

// App handles outbox business logic
type App struct {
	repo   Repository // nil for relays
	source Source
	clock  clockwork.Clock
}

// NewApp creates a new outbox App
func NewApp(repo Repository, clock clockwork.Clock) *App {
	return &App{
		repo:   repo,
		source: repo,
		clock:  clock,
	}
}

// NewRelayApp creates an App that only delivers events written by another process.
func NewRelayApp(source Source, clock clockwork.Clock) *App {
	return &App{
		source: source,
		clock:  clock,
	}
}

// Record serializes payload and appends it to the outbox.
func (a *App) Record(ctx context.Context, eventType string, aggregateID uuid.UUID, payload any, headers map[string]string) error {
	if a.repo == nil {
		return ErrReadOnly
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	if err := a.validateEventPayload(data); err != nil {
		return fmt.Errorf("invalid %s payload: %w", eventType, err)
	}

	event := Event{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     data,
		Headers:     headers,
		CreatedAt:   a.clock.Now().UTC(),
	}
	if err := a.repo.Insert(ctx, event); err != nil {
		return fmt.Errorf("failed to insert %s event: %w", eventType, err)
	}

	log.Debug().
		Str("event_id", event.ID.String()).
		Str("aggregate_id", aggregateID.String()).
		Str("event_type", eventType).
		Msg("outbox event inserted")

	return nil
}

// FetchUnsentEvents fetches unsent outbox events
func (a *App) FetchUnsentEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	events, err := a.source.FetchUnsent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent events: %w", err)
	}

	if len(events) > 0 {
		log.Debug().
			Int("count", len(events)).
			Msg("fetched unsent outbox events")
	}

	return events, nil
}

// ProcessUnsentEvents hands one batch of unsent events to processor and marks the successes sent.
// It returns how many events were marked.
func (a *App) ProcessUnsentEvents(ctx context.Context, batchSize int, processor func(ctx context.Context, event Event) error) (int, error) {
	events, err := a.FetchUnsentEvents(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	var sent []uuid.UUID
	errorCount := 0
	for _, event := range events {
		if err := processor(ctx, event); err != nil {
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to process event")
			errorCount++
			continue
		}
		sent = append(sent, event.ID)
	}

	if len(sent) > 0 {
		if err := a.source.MarkSent(ctx, sent...); err != nil {
			return 0, fmt.Errorf("failed to mark events as sent: %w", err)
		}
	}

	if len(sent) > 0 || errorCount > 0 {
		log.Info().
			Int("processed", len(sent)).
			Int("errors", errorCount).
			Int("total", len(events)).
			Msg("processed unsent events batch")
	}

	return len(sent), nil
}

// Pending reports how many events still wait for delivery.
func (a *App) Pending(ctx context.Context) (int, error) {
	n, err := a.source.CountPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending events: %w", err)
	}
	pendingEvents.Set(float64(n))
	return n, nil
}

// validateEventPayload validates that the event payload is not empty
func (a *App) validateEventPayload(payload []byte) error {
	if len(payload) == 0 || string(payload) == "null" {
		return fmt.Errorf("event payload cannot be empty")
	}
	return nil
}
