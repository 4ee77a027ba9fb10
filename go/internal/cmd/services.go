package main

import (
	"context"
	"fmt"
	"io"

	"github.com/criclink/criclink/go/internal/bookings"
	"github.com/criclink/criclink/go/internal/calendar"
	"github.com/criclink/criclink/go/internal/gateway"
	"github.com/criclink/criclink/go/internal/grounds"
	"github.com/criclink/criclink/go/internal/httpapi"
	"github.com/criclink/criclink/go/internal/invitations"
	"github.com/criclink/criclink/go/internal/joinrequests"
	"github.com/criclink/criclink/go/internal/matchrequests"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/criclink/criclink/go/internal/teams"
	"github.com/criclink/criclink/go/internal/workflow"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// repositories groups the storage backends of every component.
type repositories struct {
	tx            sqlutil.Transactor
	outbox        outbox.Repository
	grounds       grounds.Repository
	bookings      bookings.Repository
	teams         teams.Repository
	matchRequests workflow.Store[models.MatchProposal]
	joinRequests  workflow.Store[models.JoinPayload]
	invitations   workflow.Store[models.InvitationPayload]
}

func memoryRepositories() repositories {
	return repositories{
		tx:            sqlutil.DirectTransactor{},
		outbox:        outbox.NewMemoryRepository(),
		grounds:       grounds.NewMemoryRepository(),
		bookings:      bookings.NewMemoryRepository(),
		teams:         teams.NewMemoryRepository(),
		matchRequests: workflow.NewMemoryStore[models.MatchProposal](),
		joinRequests:  workflow.NewMemoryStore[models.JoinPayload](),
		invitations:   workflow.NewMemoryStore[models.InvitationPayload](),
	}
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		tx:            sqlutil.NewTransactor(pool),
		outbox:        outbox.NewPgxRepository(pool),
		grounds:       grounds.NewPostgresRepository(pool),
		bookings:      bookings.NewPostgresRepository(pool),
		teams:         teams.NewPostgresRepository(pool),
		matchRequests: workflow.NewPostgresStore[models.MatchProposal](pool, models.RequestKindMatch),
		joinRequests:  workflow.NewPostgresStore[models.JoinPayload](pool, models.RequestKindJoin),
		invitations:   workflow.NewPostgresStore[models.InvitationPayload](pool, models.RequestKindInvitation),
	}
}

// Services is everything the server mounts.
type Services struct {
	API     httpapi.Services
	Outbox  *outbox.App
	Gateway *gateway.ConnectionManager
}

func setupServices(repos repositories, gw *gateway.ConnectionManager, clock clockwork.Clock) *Services {
	// Wire up dependency injection chain
	// Repository layer → App layer → HTTP layer
	events := outbox.NewApp(repos.outbox, clock)

	groundApp := grounds.NewApp(repos.grounds, repos.tx, events, clock)
	ledger := bookings.NewLedger(repos.bookings, groundApp, events, clock)
	teamApp := teams.NewApp(repos.teams, repos.tx, events, clock)

	return &Services{
		API: httpapi.Services{
			Grounds:       groundApp,
			Bookings:      ledger,
			Calendar:      calendar.NewAggregator(ledger),
			Teams:         teamApp,
			MatchRequests: matchrequests.NewCoordinator(repos.matchRequests, teamApp, events, repos.tx, clock),
			JoinRequests:  joinrequests.NewCoordinator(repos.joinRequests, teamApp, events, repos.tx, clock),
			Invitations:   invitations.NewCoordinator(repos.invitations, teamApp, events, repos.tx, clock),
		},
		Outbox:  events,
		Gateway: gw,
	}
}

// setupPublisher builds the broker publisher for the in-process outbox worker. Every
// variant also feeds the calendar gateway directly. The returned closer releases the
// broker connection.
func setupPublisher(ctx context.Context, env Env, gw *gateway.ConnectionManager) (outbox.EventPublisher, io.Closer, error) {
	switch env.Publisher {
	case "log":
		return outbox.FanoutPublisher{
			outbox.NewMetricPublisher(outbox.LogPublisher{}, "log"),
			gw,
		}, closerFunc(func() error { return nil }), nil

	case "jetstream":
		cfg := outbox.DefaultJetStreamConfig()
		if env.NATSURL != "" {
			cfg.URL = env.NATSURL
		}
		js, err := outbox.NewJetStreamPublisher(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create JetStream publisher: %w", err)
		}
		return outbox.FanoutPublisher{outbox.NewMetricPublisher(js, "jetstream"), gw}, js, nil

	case "rabbitmq":
		rmq, err := outbox.NewRabbitMQPublisher(env.RabbitMQURL, env.RabbitExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("create RabbitMQ publisher: %w", err)
		}
		return outbox.FanoutPublisher{outbox.NewMetricPublisher(rmq, "rabbitmq"), gw}, rmq, nil

	default:
		return nil, nil, fmt.Errorf("unknown OUTBOX_PUBLISHER %q", env.Publisher)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// setupGatewayConsumer is used when a separate relay drains the outbox into JetStream.
func setupGatewayConsumer(ctx context.Context, env Env, gw *gateway.ConnectionManager) (*gateway.EventConsumer, error) {
	cfg := gateway.DefaultJetStreamConsumerConfig()
	if env.NATSURL != "" {
		cfg.Stream.URL = env.NATSURL
	}
	consumer, err := gateway.NewEventConsumer(ctx, gw, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gateway consumer: %w", err)
	}
	log.Info().Str("subject", cfg.SubjectFilter).Msg("calendar gateway consuming from JetStream")
	return consumer, nil
}
