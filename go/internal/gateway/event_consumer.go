package gateway

import (
	"context"
	"fmt"

	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

type JetStreamConsumerConfig struct {
	Stream        outbox.JetStreamConfig
	NamePrefix    string
	SubjectFilter string // e.g. "criclink.events.booking.>"
}

func DefaultJetStreamConsumerConfig() JetStreamConsumerConfig {
	stream := outbox.DefaultJetStreamConfig()
	return JetStreamConsumerConfig{
		Stream:        stream,
		NamePrefix:    "calendar-gateway",
		SubjectFilter: stream.Subject("booking.>"),
	}
}

// ordered returns the consumer settings for one gateway instance. Every replica holds its
// own websocket clients, so each needs the full event stream rather than a share of it.
func (c JetStreamConsumerConfig) ordered() jetstream.OrderedConsumerConfig {
	return jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{c.SubjectFilter},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
		NamePrefix:     c.NamePrefix,
	}
}

// orderedConsumers is the part of jetstream.JetStream the consumer needs.
type orderedConsumers interface {
	OrderedConsumer(ctx context.Context, stream string, cfg jetstream.OrderedConsumerConfig) (jetstream.Consumer, error)
}

// EventConsumer relays booking events from JetStream to websocket clients. It is used when
// the outbox relay runs as its own process.
type EventConsumer struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	consumer          jetstream.Consumer
	config            JetStreamConsumerConfig
}

func NewEventConsumer(ctx context.Context, cm *ConnectionManager, config JetStreamConsumerConfig) (*EventConsumer, error) {
	nc, err := outbox.ConnectNATS(config.Stream)
	if err != nil {
		return nil, err
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	ec, err := newEventConsumer(ctx, cm, js, config)
	if err != nil {
		nc.Close()
		return nil, err
	}
	ec.nc = nc
	return ec, nil
}

func newEventConsumer(ctx context.Context, cm *ConnectionManager, js orderedConsumers, config JetStreamConsumerConfig) (*EventConsumer, error) {
	consumer, err := js.OrderedConsumer(ctx, config.Stream.StreamName, config.ordered())
	if err != nil {
		return nil, fmt.Errorf("create ordered consumer: %w", err)
	}
	return &EventConsumer{
		connectionManager: cm,
		consumer:          consumer,
		config:            config,
	}, nil
}

// Start consumes until ctx is done. Ordered consumers are unacknowledged, so a message
// that fails to convert is logged and skipped.
func (ec *EventConsumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer_prefix", ec.config.NamePrefix).
		Str("stream", ec.config.Stream.StreamName).
		Msg("starting JetStream event consumer")

	consumeCtx, err := ec.consumer.Consume(func(msg jetstream.Msg) {
		if err := ec.processMessage(ctx, msg.Data()); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process message")
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	<-ctx.Done()
	log.Info().Msg("event consumer shutting down")
	return nil
}

func (ec *EventConsumer) processMessage(ctx context.Context, data []byte) error {
	event, err := outbox.UnmarshalEnvelope(data)
	if err != nil {
		return err
	}
	return ec.connectionManager.Publish(ctx, event)
}

func (ec *EventConsumer) Stop() {
	log.Info().Msg("stopping event consumer")
	if ec.nc != nil {
		ec.nc.Close()
	}
}
