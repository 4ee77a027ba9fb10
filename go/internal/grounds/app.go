package grounds

import (
	"context"
	"fmt"
	"strings"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/criclink/criclink/go/internal/timeslot"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Repository defines what the app layer needs from ground storage
type Repository interface {
	CreateGround(ctx context.Context, g *models.Ground) error
	GetGround(ctx context.Context, id uuid.UUID) (*models.Ground, error)
	UpdateGround(ctx context.Context, g *models.Ground) error
	ListGroundsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Ground, error)
}

// EventRecorder appends domain events to the outbox within the caller's unit of work.
type EventRecorder interface {
	Record(ctx context.Context, eventType string, aggregateID uuid.UUID, payload any, headers map[string]string) error
}

// App handles the ground directory
type App struct {
	repo   Repository
	tx     sqlutil.Transactor
	events EventRecorder
	clock  clockwork.Clock
}

// NewApp creates a new grounds App
func NewApp(repo Repository, tx sqlutil.Transactor, events EventRecorder, clock clockwork.Clock) *App {
	return &App{
		repo:   repo,
		tx:     tx,
		events: events,
		clock:  clock,
	}
}

// CreateGround registers a ground owned by actor
func (a *App) CreateGround(ctx context.Context, actor uuid.UUID, req CreateGroundRequest) (*models.Ground, error) {
	if err := validateGroundRequest(req); err != nil {
		return nil, err
	}

	now := a.clock.Now().UTC()
	g := &models.Ground{
		ID:        uuid.New(),
		OwnerID:   actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyRequest(g, req)

	err := a.tx.Transact(ctx, func(ctx context.Context) error {
		if err := a.repo.CreateGround(ctx, g); err != nil {
			return fmt.Errorf("failed to create ground: %w", err)
		}
		return a.events.Record(ctx, outbox.GroundCreated, g.ID, g, map[string]string{
			outbox.HeaderGroundID: g.ID.String(),
			outbox.HeaderActorID:  actor.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("ground_id", g.ID.String()).
		Str("owner_id", actor.String()).
		Str("name", g.Name).
		Msg("created ground")
	return g, nil
}

// GetGround retrieves a ground by ID
func (a *App) GetGround(ctx context.Context, id uuid.UUID) (*models.Ground, error) {
	g, err := a.repo.GetGround(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ground: %w", err)
	}
	return g, nil
}

// ListGroundsByOwner lists the grounds actor owns
func (a *App) ListGroundsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Ground, error) {
	gs, err := a.repo.ListGroundsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grounds: %w", err)
	}
	return gs, nil
}

// UpdateGround replaces a ground's editable fields. Only the owner may edit.
func (a *App) UpdateGround(ctx context.Context, actor, id uuid.UUID, req UpdateGroundRequest) (*models.Ground, error) {
	if err := validateGroundRequest(req); err != nil {
		return nil, err
	}

	var updated *models.Ground
	err := a.tx.Transact(ctx, func(ctx context.Context) error {
		g, err := a.repo.GetGround(ctx, id)
		if err != nil {
			return err
		}
		if g.OwnerID != actor {
			return apperrors.NotAuthorized(actor, "edit ground "+id.String())
		}
		applyRequest(g, req)
		g.UpdatedAt = a.clock.Now().UTC()
		if err := a.repo.UpdateGround(ctx, g); err != nil {
			return fmt.Errorf("failed to update ground: %w", err)
		}
		updated = g
		return a.events.Record(ctx, outbox.GroundUpdated, g.ID, g, map[string]string{
			outbox.HeaderGroundID: g.ID.String(),
			outbox.HeaderActorID:  actor.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("ground_id", id.String()).Msg("updated ground")
	return updated, nil
}

// Quote prices a slot on a ground for the given date
func (a *App) Quote(ctx context.Context, id uuid.UUID, date models.Date, slot timeslot.Slot, addOns []string) (*Quote, error) {
	g, err := a.repo.GetGround(ctx, id)
	if err != nil {
		return nil, err
	}
	return QuoteSlot(g, date, slot, addOns)
}

func applyRequest(g *models.Ground, req CreateGroundRequest) {
	g.Name = strings.TrimSpace(req.Name)
	g.District = strings.TrimSpace(req.District)
	g.Village = strings.TrimSpace(req.Village)
	g.Address = strings.TrimSpace(req.Address)
	g.Capacity = req.Capacity
	g.PitchType = req.PitchType
	g.Pricing = req.Pricing
	g.AddOns = req.AddOns
}

func validateGroundRequest(req CreateGroundRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.Invalid("name", req.Name, "is required")
	}
	if req.Capacity < 0 {
		return apperrors.Invalid("capacity", fmt.Sprint(req.Capacity), "must not be negative")
	}
	for _, r := range []models.PeriodRates{req.Pricing.Weekday, req.Pricing.Weekend} {
		if r.Morning < 0 || r.Afternoon < 0 || r.Evening < 0 {
			return apperrors.Invalid("pricing", "", "rates must not be negative")
		}
	}
	for name, charge := range req.AddOns {
		if strings.TrimSpace(name) == "" {
			return apperrors.Invalid("add_ons", name, "name is required")
		}
		if charge < 0 {
			return apperrors.Invalid("add_ons", name, "charge must not be negative")
		}
	}
	return nil
}
