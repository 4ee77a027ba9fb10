package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// LogPublisher writes events to the log instead of a broker. Useful for local development.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event Event) error {
	log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Str("aggregate_id", event.AggregateID.String()).
		RawJSON("payload", event.Payload).
		Msg("publishing event")
	return nil
}

// FanoutPublisher delivers each event to every wrapped publisher and joins their errors.
type FanoutPublisher []EventPublisher

func (f FanoutPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MetricPublisher wraps an EventPublisher with metrics collection
type MetricPublisher struct {
	publisher EventPublisher
	transport string
}

func NewMetricPublisher(publisher EventPublisher, transport string) *MetricPublisher {
	return &MetricPublisher{
		publisher: publisher,
		transport: transport,
	}
}

func (p *MetricPublisher) Publish(ctx context.Context, event Event) error {
	start := time.Now()

	err := p.publisher.Publish(ctx, event)

	result := "success"
	if err != nil {
		result = "failure"
	}
	eventsPublished.WithLabelValues(p.transport, event.EventType, result).Inc()
	publishDuration.WithLabelValues(p.transport).Observe(time.Since(start).Seconds())

	return err
}
