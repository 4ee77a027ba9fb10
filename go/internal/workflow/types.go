package workflow

import (
	"context"
	"time"

	"github.com/criclink/criclink/go/internal/models"
	"github.com/google/uuid"
)

// Request is one request of some kind between two parties. FromParty and ToParty are team or
// player ids depending on the kind.
type Request[P any] struct {
	ID              uuid.UUID            `json:"id"`
	Kind            models.RequestKind   `json:"kind"`
	InitiatorID     uuid.UUID            `json:"initiator_id"`
	FromParty       uuid.UUID            `json:"from_party"`
	ToParty         uuid.UUID            `json:"to_party"`
	Payload         P                    `json:"payload"`
	Status          models.RequestStatus `json:"status"`
	ResponseMessage string               `json:"response_message,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	RespondedAt     *time.Time           `json:"responded_at,omitempty"`
}

// IsPending reports whether the request can still be answered or cancelled.
func (r *Request[P]) IsPending() bool {
	return r.Status == models.RequestStatusPending
}

// Policy binds the generic lifecycle to one request kind.
type Policy[P any] interface {
	Kind() models.RequestKind
	// AuthorizeSend validates a new request. It may normalize the payload in place.
	AuthorizeSend(ctx context.Context, actor, from, to uuid.UUID, payload *P) error
	// AuthorizeResponse reports whether actor may accept or reject r.
	AuthorizeResponse(ctx context.Context, actor uuid.UUID, r *Request[P]) (bool, error)
	// OnAccept performs the durable effect of accepting r. It runs inside the request's
	// critical section and unit of work.
	OnAccept(ctx context.Context, r *Request[P]) error
}

// Store persists requests of one kind.
type Store[P any] interface {
	Create(ctx context.Context, r *Request[P]) error
	Get(ctx context.Context, id uuid.UUID) (*Request[P], error)
	// Transition loads the request under an exclusive per-request lock, hands it to fn and
	// persists the mutated copy only if fn returns nil. Anything fn wrote through ctx is
	// discarded with it.
	Transition(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, r *Request[P]) error) (*Request[P], error)
	ListByInitiator(ctx context.Context, actor uuid.UUID) ([]Request[P], error)
	ListByRecipients(ctx context.Context, parties []uuid.UUID) ([]Request[P], error)
}

// EventRecorder appends domain events to the outbox within the caller's unit of work.
type EventRecorder interface {
	Record(ctx context.Context, eventType string, aggregateID uuid.UUID, payload any, headers map[string]string) error
}

// SendRequest carries a new request.
type SendRequest[P any] struct {
	From    uuid.UUID `json:"from"`
	To      uuid.UUID `json:"to"`
	Payload P         `json:"payload"`
}
