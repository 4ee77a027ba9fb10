package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/criclink/criclink/go/internal/gateway"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	env, err := loadEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid environment")
	}
	level, err := zerolog.ParseLevel(env.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", env.LogLevel).Msg("invalid LOG_LEVEL")
	}
	zerolog.SetGlobalLevel(level)

	config, err := loadConfig(env.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	gw := gateway.NewConnectionManager(config.Gateway)
	go gw.Start(ctx)

	repos := memoryRepositories()
	var db outbox.Pinger
	if env.Storage == "postgres" {
		pool, err := setupDatabase(ctx, env.Migrate)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to setup database")
		}
		defer pool.Close()
		repos = postgresRepositories(pool)
		db = pool
	}

	services := setupServices(repos, gw, clock)
	var health http.Handler
	if db != nil {
		health = outbox.NewHealthChecker(services.Outbox, db, nil)
	}

	// A separate relay owns publishing; the gateway then follows JetStream instead.
	if env.Publisher == "relay" {
		consumer, err := setupGatewayConsumer(ctx, env, gw)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to setup gateway consumer")
		}
		defer consumer.Stop()
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("gateway consumer stopped")
			}
		}()
	} else {
		publisher, closer, err := setupPublisher(ctx, env, gw)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to setup outbox publisher")
		}
		defer func() {
			if err := closer.Close(); err != nil {
				log.Error().Err(err).Msg("close publisher")
			}
		}()
		worker := outbox.NewWorker(services.Outbox, publisher, config.outboxConfig(), clock)
		if err := worker.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start outbox worker")
		}
		defer func() {
			if err := worker.Stop(); err != nil {
				log.Error().Err(err).Msg("stop outbox worker")
			}
		}()
	}

	server := setupServer(env.Port, config, services, health)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("storage", env.Storage).Msg("criclink server starting")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server exited unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("graceful shutdown complete")
}
