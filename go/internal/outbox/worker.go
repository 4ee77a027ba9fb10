package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Config struct {
	PollInterval time.Duration
	BatchSize    int
	Retry        RetryPolicy
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
		BatchSize:    100,
		Retry:        RetryPolicy{MaxRetries: 3, RetryDelay: time.Second},
	}
}

// Worker polls the outbox and publishes unsent events. The API server runs one in process
// when no relay is deployed.
type Worker struct {
	app       *App
	publisher EventPublisher
	config    Config
	clock     clockwork.Clock

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWorker(app *App, publisher EventPublisher, cfg Config, clock clockwork.Clock) *Worker {
	return &Worker{
		app:       app,
		publisher: publisher,
		config:    cfg,
		clock:     clock,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	log.Info().
		Dur("poll_interval", w.config.PollInterval).
		Int("batch_size", w.config.BatchSize).
		Msg("outbox worker started")

	return nil
}

func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker not running")
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	log.Info().Msg("outbox worker stopped")
	return nil
}

// Running reports whether the poll loop is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := w.clock.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on start
	w.processOutbox(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.Chan():
			w.processOutbox(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) int {
	n, err := w.app.ProcessUnsentEvents(ctx, w.config.BatchSize, func(ctx context.Context, event Event) error {
		return publishWithRetry(ctx, w.clock, w.publisher, w.config.Retry, event)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to process outbox batch")
	}
	if _, err := w.app.Pending(ctx); err != nil {
		log.Error().Err(err).Msg("failed to count pending events")
	}
	return n
}
