// Package workflow implements the pending/accepted/rejected/cancelled lifecycle shared by every
// request kind. A Policy decides who may send and respond and what accepting does.
package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/criclink/criclink/go/internal/outbox"
	"github.com/criclink/criclink/go/internal/sqlutil"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Workflow runs requests of one kind.
type Workflow[P any] struct {
	store  Store[P]
	policy Policy[P]
	events EventRecorder
	tx     sqlutil.Transactor
	clock  clockwork.Clock
}

func New[P any](store Store[P], policy Policy[P], events EventRecorder, tx sqlutil.Transactor, clock clockwork.Clock) *Workflow[P] {
	return &Workflow[P]{
		store:  store,
		policy: policy,
		events: events,
		tx:     tx,
		clock:  clock,
	}
}

func (w *Workflow[P]) Kind() models.RequestKind { return w.policy.Kind() }

func (w *Workflow[P]) eventType(status string) string {
	return outbox.RequestEventType(string(w.policy.Kind())+"_request", status)
}

func (w *Workflow[P]) headers(actor uuid.UUID) map[string]string {
	return map[string]string{
		outbox.HeaderActorID:     actor.String(),
		outbox.HeaderRequestKind: string(w.policy.Kind()),
	}
}

// Send creates a pending request. Several pending requests between the same parties may coexist.
func (w *Workflow[P]) Send(ctx context.Context, actor uuid.UUID, req SendRequest[P]) (*Request[P], error) {
	payload := req.Payload
	if err := w.policy.AuthorizeSend(ctx, actor, req.From, req.To, &payload); err != nil {
		return nil, err
	}

	now := w.clock.Now().UTC()
	r := &Request[P]{
		ID:          uuid.New(),
		Kind:        w.policy.Kind(),
		InitiatorID: actor,
		FromParty:   req.From,
		ToParty:     req.To,
		Payload:     payload,
		Status:      models.RequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := w.tx.Transact(ctx, func(ctx context.Context) error {
		if err := w.store.Create(ctx, r); err != nil {
			return fmt.Errorf("failed to create %s request: %w", r.Kind, err)
		}
		return w.events.Record(ctx, w.eventType("sent"), r.ID, r, w.headers(actor))
	})
	if err != nil {
		return nil, err
	}
	transitions.WithLabelValues(string(r.Kind), string(r.Status)).Inc()

	log.Info().
		Str("request_id", r.ID.String()).
		Str("kind", string(r.Kind)).
		Str("from", r.FromParty.String()).
		Str("to", r.ToParty.String()).
		Msg("sent request")
	return r, nil
}

// Accept moves a pending request to accepted and runs the side effect exactly once.
// If the side effect fails nothing is persisted and the error wraps apperrors.ErrSideEffectFailed.
func (w *Workflow[P]) Accept(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*Request[P], error) {
	return w.respond(ctx, actor, id, models.RequestStatusAccepted, responseMessage)
}

// Reject moves a pending request to rejected. Nothing else changes.
func (w *Workflow[P]) Reject(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*Request[P], error) {
	return w.respond(ctx, actor, id, models.RequestStatusRejected, responseMessage)
}

func (w *Workflow[P]) respond(ctx context.Context, actor, id uuid.UUID, to models.RequestStatus, responseMessage string) (*Request[P], error) {
	verb := "accept"
	if to == models.RequestStatusRejected {
		verb = "reject"
	}

	r, err := w.store.Transition(ctx, id, func(ctx context.Context, r *Request[P]) error {
		ok, err := w.policy.AuthorizeResponse(ctx, actor, r)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NotAuthorized(actor, fmt.Sprintf("%s %s request %s", verb, r.Kind, r.ID))
		}
		if !r.IsPending() {
			return stateError(r, verb)
		}

		now := w.clock.Now().UTC()
		r.Status = to
		r.ResponseMessage = responseMessage
		r.RespondedAt = &now
		r.UpdatedAt = now

		if to == models.RequestStatusAccepted {
			if err := w.policy.OnAccept(ctx, r); err != nil {
				sideEffectFailures.WithLabelValues(string(r.Kind)).Inc()
				return &apperrors.SideEffectError{RequestID: r.ID.String(), Err: err}
			}
		}
		return w.events.Record(ctx, w.eventType(string(to)), r.ID, r, w.headers(actor))
	})
	if err != nil {
		return nil, err
	}
	transitions.WithLabelValues(string(r.Kind), string(r.Status)).Inc()

	log.Info().
		Str("request_id", r.ID.String()).
		Str("kind", string(r.Kind)).
		Str("actor_id", actor.String()).
		Str("status", string(r.Status)).
		Msg("responded to request")
	return r, nil
}

// Cancel withdraws a pending request. Only its initiator may do so.
func (w *Workflow[P]) Cancel(ctx context.Context, actor, id uuid.UUID) (*Request[P], error) {
	r, err := w.store.Transition(ctx, id, func(ctx context.Context, r *Request[P]) error {
		if r.InitiatorID != actor {
			return apperrors.NotAuthorized(actor, fmt.Sprintf("cancel %s request %s", r.Kind, r.ID))
		}
		if !r.IsPending() {
			return stateError(r, "cancel")
		}
		r.Status = models.RequestStatusCancelled
		r.UpdatedAt = w.clock.Now().UTC()
		return w.events.Record(ctx, w.eventType("cancelled"), r.ID, r, w.headers(actor))
	})
	if err != nil {
		return nil, err
	}
	transitions.WithLabelValues(string(r.Kind), string(r.Status)).Inc()

	log.Info().Str("request_id", r.ID.String()).Str("kind", string(r.Kind)).Msg("cancelled request")
	return r, nil
}

func (w *Workflow[P]) Get(ctx context.Context, id uuid.UUID) (*Request[P], error) {
	return w.store.Get(ctx, id)
}

// ListSent lists the requests actor initiated, newest first.
func (w *Workflow[P]) ListSent(ctx context.Context, actor uuid.UUID) ([]Request[P], error) {
	rs, err := w.store.ListByInitiator(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent requests: %w", err)
	}
	SortNewestFirst(rs)
	return rs, nil
}

// ListReceived lists the requests addressed to any of parties, newest first.
func (w *Workflow[P]) ListReceived(ctx context.Context, parties []uuid.UUID) ([]Request[P], error) {
	if len(parties) == 0 {
		return []Request[P]{}, nil
	}
	rs, err := w.store.ListByRecipients(ctx, parties)
	if err != nil {
		return nil, fmt.Errorf("failed to list received requests: %w", err)
	}
	SortNewestFirst(rs)
	return rs, nil
}

// SortNewestFirst orders requests by creation time descending, then id.
func SortNewestFirst[P any](rs []Request[P]) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID.String() < rs[j].ID.String()
	})
}

func stateError[P any](r *Request[P], op string) error {
	return &apperrors.StateError{
		Entity:  string(r.Kind) + " request",
		ID:      r.ID.String(),
		Current: string(r.Status),
		Op:      op,
	}
}
